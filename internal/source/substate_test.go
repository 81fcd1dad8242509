package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galad-data/govdata-cli/internal/model"
)

const entitySeedCSV = `name,country_iso3,entity_type,legal_id,parent_id,independent,founded_year,member_count,member_count_year,funding_usd,funding_year,funding_type,source_name,source_url,source_date,confidence
Acme Foundation,USA,foundation,LEI123,,true,1987,,,2500000000,2023,endowment,registry,https://example.org,2024-01-15,0.9
National Union,bra,union,,,false,,12000,2023,,,,survey,,2023-06-01,0.7
,USA,ngo,,,,,,,,,,,,,
`

func TestReadEntitySeeds(t *testing.T) {
	path := writeFile(t, "entities.csv", entitySeedCSV)
	entities, err := ReadEntitySeeds(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, entities, 2) // nameless row skipped

	acme := entities[0]
	assert.Equal(t, "Acme Foundation", acme.Name)
	assert.Equal(t, "USA", acme.ISO3)
	assert.Equal(t, model.EntityFoundation, acme.Type)
	assert.Equal(t, "LEI123", acme.LegalID)
	assert.True(t, acme.Independent)
	require.NotNil(t, acme.FoundedYear)
	assert.Equal(t, 1987, *acme.FoundedYear)
	require.NotNil(t, acme.FundingUSD)
	assert.Equal(t, 2.5e9, *acme.FundingUSD)
	assert.Equal(t, "endowment", acme.FundingType)
	assert.Equal(t, 0.9, acme.Confidence)
	assert.Equal(t, "2024-01-15", acme.SourceDate.Format("2006-01-02"))

	union := entities[1]
	assert.Equal(t, "BRA", union.ISO3)
	assert.False(t, union.Independent)
	require.NotNil(t, union.MemberCount)
	assert.Equal(t, 12000.0, *union.MemberCount)
	assert.Nil(t, union.FundingUSD)
}

func TestReadEntitySeeds_UnknownTypeBecomesOther(t *testing.T) {
	path := writeFile(t, "entities.csv", "name,country_iso3,entity_type\nMystery Org,USA,guild\n")
	entities, err := ReadEntitySeeds(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, model.EntityOther, entities[0].Type)
}

func TestReadEntitySeeds_PoliticalPartyAlias(t *testing.T) {
	path := writeFile(t, "entities.csv", "name,country_iso3,entity_type\nUnity Party,USA,political_party\n")
	entities, err := ReadEntitySeeds(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, model.EntityParty, entities[0].Type)
}

const positionSeedCSV = `entity_id,year,issue_code,stance,evidence_type,evidence_url,evidence_snippet,source_name,source_date,confidence
lei-LEI123,2023,expression,Support,statement,https://example.org/a,,press,2023-11-02,0.8
usa-ngo-acme,2024,labor_rights,restrict,,,quoted text,report,2024-03-10,0.6
`

func TestReadPositionSeeds(t *testing.T) {
	path := writeFile(t, "positions.csv", positionSeedCSV)
	positions, err := ReadPositionSeeds(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, positions, 2)

	first := positions[0]
	assert.Equal(t, "lei-LEI123", first.EntityID)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "expression", first.IssueCode)
	assert.Equal(t, model.StanceSupport, first.Stance) // case-folded
	assert.Equal(t, "https://example.org/a", first.EvidenceURL)

	second := positions[1]
	assert.Equal(t, model.StanceRestrict, second.Stance)
	assert.Equal(t, "quoted text", second.EvidenceSnippet)
}

func TestReadPositionSeeds_BadYearSkipped(t *testing.T) {
	path := writeFile(t, "positions.csv", "entity_id,year,issue_code,stance\nx,unknown,expression,support\n")
	positions, err := ReadPositionSeeds(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, positions)
}
