package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridTable() *CountryYearTable {
	return &CountryYearTable{
		StartYear: 2020,
		EndYear:   2021,
		Rows: []CountryYearRow{
			{ISO3: "DEU", Year: 2020, Values: map[string]string{"wb__gdp": "46208"}},
			{ISO3: "DEU", Year: 2021, Values: map[string]string{"wb__gdp": "bad"}},
			{ISO3: "FRA", Year: 2020, Values: map[string]string{}},
			{ISO3: "FRA", Year: 2021, Values: map[string]string{}},
		},
	}
}

func TestTable_RowLookup(t *testing.T) {
	table := gridTable()

	row := table.Row("DEU", 2021)
	require.NotNil(t, row)
	assert.Equal(t, "DEU", row.ISO3)
	assert.Equal(t, 2021, row.Year)

	assert.Nil(t, table.Row("DEU", 2019))
	assert.Nil(t, table.Row("ITA", 2020))
}

func TestRow_FloatParsesOnUse(t *testing.T) {
	table := gridTable()

	v, ok := table.Row("DEU", 2020).Float("wb__gdp")
	require.True(t, ok)
	assert.Equal(t, 46208.0, v)

	_, ok = table.Row("DEU", 2021).Float("wb__gdp")
	assert.False(t, ok)

	_, ok = table.Row("FRA", 2020).Float("wb__gdp")
	assert.False(t, ok)
}

func TestRunReport_FinishSortsAudits(t *testing.T) {
	r := NewRunReport("run-1")
	r.Unresolved = []MatchAudit{
		{Token: "b", Source: "wb"},
		{Token: "a", Source: "odb"},
		{Token: "a", Source: "wb"},
	}
	r.AbsentSources = []string{"z", "a"}
	r.Finish()

	assert.Equal(t, "odb", r.Unresolved[0].Source)
	assert.Equal(t, "a", r.Unresolved[1].Token)
	assert.Equal(t, "b", r.Unresolved[2].Token)
	assert.Equal(t, []string{"a", "z"}, r.AbsentSources)
	assert.False(t, r.FinishedAt.IsZero())
}

func TestBandNames(t *testing.T) {
	assert.Equal(t, []string{"low", "high"}, BandNames(2))
	assert.Equal(t, []string{"low", "medium", "high"}, BandNames(3))
	assert.Equal(t, []string{"very_low", "low", "medium", "high", "very_high"}, BandNames(5))
	assert.Equal(t, []string{"band_1", "band_2", "band_3", "band_4"}, BandNames(4))
}

func TestPosition_HasEvidence(t *testing.T) {
	assert.False(t, (&Position{}).HasEvidence())
	assert.True(t, (&Position{EvidenceURL: "https://example.org"}).HasEvidence())
	assert.True(t, (&Position{EvidenceSnippet: "quote"}).HasEvidence())
}

func TestValidEntityType(t *testing.T) {
	assert.True(t, ValidEntityType(EntityUnion))
	assert.False(t, ValidEntityType("guild"))
}

func TestValidStance(t *testing.T) {
	assert.True(t, ValidStance(StanceMixed))
	assert.False(t, ValidStance("endorses"))
}
