package calibrate

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galad-data/govdata-cli/internal/model"
)

// tableWithValues builds a one-country table with one value per year.
func tableWithValues(column string, values []float64) *model.CountryYearTable {
	table := &model.CountryYearTable{
		StartYear: 2000,
		EndYear:   2000 + len(values) - 1,
		Columns:   []string{column},
	}
	for i, v := range values {
		table.Rows = append(table.Rows, model.CountryYearRow{
			ISO3: "DEU",
			Year: 2000 + i,
			Values: map[string]string{
				column: strconv.FormatFloat(v, 'f', -1, 64),
			},
		})
	}
	return table
}

func TestCalibrate_TercileBreakpoints(t *testing.T) {
	table := tableWithValues("wb__x", []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100})
	set, err := Calibrate(table, []string{"wb__x"}, Options{Bands: 3, MinObservations: 5})
	require.NoError(t, err)

	th := set.Indicators["wb__x"]
	require.Len(t, th.Breakpoints, 2)
	assert.InDelta(t, 40.0, th.Breakpoints[0], 1e-9)
	assert.InDelta(t, 70.0, th.Breakpoints[1], 1e-9)
	assert.Equal(t, 10, th.Observations)
	assert.False(t, th.Insufficient)
}

func TestCalibrate_MedianBreakpoint(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1, 2, 3, 4})
	set, err := Calibrate(table, []string{"wb__x"}, Options{Bands: 2, MinObservations: 2})
	require.NoError(t, err)

	th := set.Indicators["wb__x"]
	require.Len(t, th.Breakpoints, 1)
	assert.InDelta(t, 2.5, th.Breakpoints[0], 1e-9)
}

func TestCalibrate_NoValuesInsufficientEvenAtZeroMinimum(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1, 2, 3})
	set, err := Calibrate(table, []string{"wb__x", "wb__empty"}, Options{Bands: 3, MinObservations: 0})
	require.NoError(t, err)

	th := set.Indicators["wb__empty"]
	assert.True(t, th.Insufficient)
	assert.Empty(t, th.Breakpoints)
}

func TestCalibrate_InsufficientMarked(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1, 2})
	set, err := Calibrate(table, []string{"wb__x", "wb__y"}, Options{Bands: 3, MinObservations: 2})
	require.NoError(t, err)

	assert.False(t, set.Indicators["wb__x"].Insufficient)
	assert.True(t, set.Indicators["wb__y"].Insufficient)
	assert.Empty(t, set.Indicators["wb__y"].Breakpoints)
	assert.Equal(t, 0, set.Indicators["wb__y"].Observations)
}

func TestCalibrate_AllInsufficientFails(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1})
	_, err := Calibrate(table, []string{"wb__x"}, Options{Bands: 3, MinObservations: 10})
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestCalibrate_NonNumericCellsIgnored(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1, 2, 3})
	table.Rows[1].Values["wb__x"] = "n/a"

	set, err := Calibrate(table, []string{"wb__x"}, Options{Bands: 2, MinObservations: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Indicators["wb__x"].Observations)
}

func TestCalibrate_TooFewBandsRejected(t *testing.T) {
	table := tableWithValues("wb__x", []float64{1, 2, 3})
	_, err := Calibrate(table, []string{"wb__x"}, Options{Bands: 1, MinObservations: 1})
	assert.Error(t, err)
}

func TestBand_AssignsByBreakpoint(t *testing.T) {
	th := model.IndicatorThresholds{Breakpoints: []float64{40, 70}}
	assert.Equal(t, 0, th.Band(10))
	assert.Equal(t, 1, th.Band(40))
	assert.Equal(t, 1, th.Band(69.9))
	assert.Equal(t, 2, th.Band(70))
	assert.Equal(t, 2, th.Band(1000))
}
