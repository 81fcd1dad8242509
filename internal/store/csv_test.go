package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galad-data/govdata-cli/internal/model"
)

func sampleTable() *model.CountryYearTable {
	return &model.CountryYearTable{
		StartYear: 2020,
		EndYear:   2021,
		Columns:   []string{"wb__gdp", "wb__rule_of_law"},
		Rows: []model.CountryYearRow{
			{ISO3: "DEU", Year: 2020, CountryName: "Germany", Values: map[string]string{"wb__gdp": "46208"}},
			{ISO3: "DEU", Year: 2021, CountryName: "Germany", Values: map[string]string{"wb__gdp": "51203", "wb__rule_of_law": "0.9"}},
		},
	}
}

func TestCSVStore_CommitPublishesFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	ctx := context.Background()

	require.NoError(t, s.WriteCountryYear(ctx, sampleTable()))
	require.NoError(t, s.WriteColumnMap(ctx, []model.ColumnProvenance{
		{SourcePrefix: "wb", OriginalColumn: "GDP", OutputColumn: "wb__gdp", SourceFile: "wb.csv"},
	}))
	require.NoError(t, s.WriteScores(ctx, []model.Score{
		{ISO3: "DEU", Year: 2021, Score: 66.7, Band: "medium", Observed: []string{"wb__gdp"}},
	}))
	require.NoError(t, s.WriteRunReport(ctx, model.NewRunReport("run-1")))
	require.NoError(t, s.Commit(ctx))

	for _, name := range []string{FileCountryYear, FileColumnMap, FileScores, FileRunReport} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// No staging leftovers.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestCSVStore_OnlyBufferedArtifactsWritten(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	ctx := context.Background()

	require.NoError(t, s.WriteThresholds(ctx, &model.ThresholdSet{Bands: 3}))
	require.NoError(t, s.Commit(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileThresholds, entries[0].Name())
}

func TestCountryYear_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	ctx := context.Background()

	require.NoError(t, s.WriteCountryYear(ctx, sampleTable()))
	require.NoError(t, s.Commit(ctx))

	got, err := LoadCountryYearCSV(filepath.Join(dir, FileCountryYear))
	require.NoError(t, err)

	assert.Equal(t, 2020, got.StartYear)
	assert.Equal(t, 2021, got.EndYear)
	assert.Equal(t, []string{"wb__gdp", "wb__rule_of_law"}, got.Columns)
	require.Len(t, got.Rows, 2)

	v, ok := got.Row("DEU", 2021).Value("wb__gdp")
	require.True(t, ok)
	assert.Equal(t, "51203", v)

	// The empty cell comes back as an explicit null, not an empty string.
	_, ok = got.Row("DEU", 2020).Value("wb__rule_of_law")
	assert.False(t, ok)
}

func TestLoadCountryYearCSV_SortsReorderedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileCountryYear)
	content := "iso3,year,country_name,wb__gdp\n" +
		"FRA,2021,France,43659\n" +
		"DEU,2021,Germany,51203\n" +
		"DEU,2020,Germany,46208\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadCountryYearCSV(path)
	require.NoError(t, err)

	require.Len(t, got.Rows, 3)
	assert.Equal(t, "DEU", got.Rows[0].ISO3)
	assert.Equal(t, 2020, got.Rows[0].Year)

	// Lookups binary-search, so they only work on sorted rows.
	v, ok := got.Row("FRA", 2021).Value("wb__gdp")
	require.True(t, ok)
	assert.Equal(t, "43659", v)
}

func TestThresholds_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	ctx := context.Background()

	set := &model.ThresholdSet{
		Bands: 3,
		Indicators: map[string]model.IndicatorThresholds{
			"wb__gdp": {Indicator: "wb__gdp", Breakpoints: []float64{40, 70}, Observations: 12},
		},
	}
	require.NoError(t, s.WriteThresholds(ctx, set))
	require.NoError(t, s.Commit(ctx))

	got, err := LoadThresholds(filepath.Join(dir, FileThresholds))
	require.NoError(t, err)
	assert.Equal(t, set.Bands, got.Bands)
	assert.Equal(t, set.Indicators["wb__gdp"].Breakpoints, got.Indicators["wb__gdp"].Breakpoints)
}
