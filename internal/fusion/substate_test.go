package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galad-data/govdata-cli/internal/model"
)

func floatp(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestMergeEntities_LegalIDMergesAcrossSpellings(t *testing.T) {
	records := []model.Entity{
		{Name: "Acme Foundation", ISO3: "USA", Type: model.EntityFoundation, LegalID: "LEI123", Confidence: 0.9},
		{Name: "The Acme Fndn", ISO3: "USA", Type: model.EntityFoundation, LegalID: "LEI123", Confidence: 0.5},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "lei-LEI123", merged[0].EntityID)
	assert.Equal(t, "Acme Foundation", merged[0].Name)
}

func TestMergeEntities_CompositeGroupAdoptsLegalID(t *testing.T) {
	records := []model.Entity{
		{Name: "Acme Foundation", ISO3: "USA", Type: model.EntityFoundation, Confidence: 0.9},
		{Name: "Acme Foundation", ISO3: "USA", Type: model.EntityFoundation, LegalID: "LEI123", Confidence: 0.5},
	}
	merged, remap := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "lei-LEI123", merged[0].EntityID)
	assert.Equal(t, "lei-LEI123", remap["usa-foundation-acme_foundation"])
}

func TestMergeEntities_NoLegalIDUsesCompositeKey(t *testing.T) {
	records := []model.Entity{
		{Name: "National Union", ISO3: "BRA", Type: model.EntityUnion, Confidence: 0.8},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "bra-union-national_union", merged[0].EntityID)
}

func TestMergeEntities_DistinctCountriesStaySeparate(t *testing.T) {
	records := []model.Entity{
		{Name: "National Union", ISO3: "BRA", Type: model.EntityUnion},
		{Name: "National Union", ISO3: "ARG", Type: model.EntityUnion},
	}
	merged, _ := MergeEntities(records)
	assert.Len(t, merged, 2)
}

func TestMergeEntities_HighestConfidenceWinsFields(t *testing.T) {
	records := []model.Entity{
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(5000), Confidence: 0.4},
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(9000), Confidence: 0.9},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, 9000.0, *merged[0].MemberCount)
	assert.Equal(t, 0.9, merged[0].Confidence)
}

func TestMergeEntities_NewerDateBreaksConfidenceTie(t *testing.T) {
	records := []model.Entity{
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(5000), Confidence: 0.9, SourceDate: day("2023-01-01")},
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(9000), Confidence: 0.9, SourceDate: day("2024-06-01")},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, 9000.0, *merged[0].MemberCount)
}

func TestMergeEntities_SourceNameBreaksFullTie(t *testing.T) {
	d := day("2024-06-01")
	records := []model.Entity{
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(5000), Confidence: 0.9, SourceDate: d, SourceName: "beta"},
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, MemberCount: floatp(9000), Confidence: 0.9, SourceDate: d, SourceName: "alpha"},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	assert.Equal(t, 9000.0, *merged[0].MemberCount)
}

func TestMergeEntities_LowerRankFillsMissingFields(t *testing.T) {
	records := []model.Entity{
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, Confidence: 0.9},
		{Name: "Acme", ISO3: "USA", Type: model.EntityNGO, FundingUSD: floatp(2e9), FundingYear: intp(2023), Confidence: 0.4},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].FundingUSD)
	assert.Equal(t, 2e9, *merged[0].FundingUSD)
	assert.Equal(t, 2023, *merged[0].FundingYear)
}

func TestMergeEntities_SortedByID(t *testing.T) {
	records := []model.Entity{
		{Name: "Zed Union", ISO3: "USA", Type: model.EntityUnion},
		{Name: "Alpha Union", ISO3: "USA", Type: model.EntityUnion},
	}
	merged, _ := MergeEntities(records)
	require.Len(t, merged, 2)
	assert.Less(t, merged[0].EntityID, merged[1].EntityID)
}

func TestValidatePositions_DropsNoEvidence(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{{EntityID: "usa-ngo-acme"}}
	positions := []model.Position{
		{EntityID: "usa-ngo-acme", Year: 2023, IssueCode: "expression", Stance: model.StanceSupport},
	}
	kept := ValidatePositions(positions, entities, nil, report)
	assert.Empty(t, kept)
	assert.Equal(t, 1, report.InvalidEvidence)
}

func TestValidatePositions_KeepsEvidencedRows(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{{EntityID: "usa-ngo-acme"}}
	positions := []model.Position{
		{EntityID: "usa-ngo-acme", Year: 2023, IssueCode: "expression", Stance: model.StanceSupport, EvidenceURL: "https://example.org/a"},
	}
	kept := ValidatePositions(positions, entities, nil, report)
	require.Len(t, kept, 1)
	assert.Equal(t, 0, report.InvalidEvidence)
}

func TestValidatePositions_DuplicateCitationsKept(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{{EntityID: "usa-ngo-acme"}}
	positions := []model.Position{
		{EntityID: "usa-ngo-acme", Year: 2023, IssueCode: "expression", Stance: model.StanceSupport, EvidenceURL: "https://example.org/a"},
		{EntityID: "usa-ngo-acme", Year: 2023, IssueCode: "expression", Stance: model.StanceSupport, EvidenceURL: "https://example.org/b"},
	}
	kept := ValidatePositions(positions, entities, nil, report)
	assert.Len(t, kept, 2)
}

func TestValidatePositions_RemapsMergedEntityIDs(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{{EntityID: "lei-LEI123"}}
	remap := map[string]string{"usa-foundation-acme_foundation": "lei-LEI123"}
	positions := []model.Position{
		{EntityID: "usa-foundation-acme_foundation", Year: 2023, IssueCode: "labor_rights", Stance: model.StanceRestrict, EvidenceSnippet: "quote"},
	}
	kept := ValidatePositions(positions, entities, remap, report)
	require.Len(t, kept, 1)
	assert.Equal(t, "lei-LEI123", kept[0].EntityID)
}

func TestValidatePositions_UnknownEntityDropped(t *testing.T) {
	report := model.NewRunReport("t")
	positions := []model.Position{
		{EntityID: "nowhere", Year: 2023, IssueCode: "expression", Stance: model.StanceSupport, EvidenceURL: "https://example.org"},
	}
	kept := ValidatePositions(positions, nil, nil, report)
	assert.Empty(t, kept)
	assert.NotEmpty(t, report.Warnings)
}

func TestValidatePositions_InvalidStanceBecomesUnknown(t *testing.T) {
	report := model.NewRunReport("t")
	entities := []model.Entity{{EntityID: "usa-ngo-acme"}}
	positions := []model.Position{
		{EntityID: "usa-ngo-acme", Year: 2023, IssueCode: "expression", Stance: "endorses", EvidenceURL: "https://example.org"},
	}
	kept := ValidatePositions(positions, entities, nil, report)
	require.Len(t, kept, 1)
	assert.Equal(t, model.StanceUnknown, kept[0].Stance)
}
