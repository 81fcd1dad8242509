package model

import (
	"sort"
	"strconv"
)

// IndicatorThresholds holds the calibrated band breakpoints for one
// indicator. Breakpoints are ascending and partition observed values into
// len(Breakpoints)+1 ordered bands. Insufficient marks indicators that had
// fewer observations than the calibration minimum; such indicators
// contribute to no score.
type IndicatorThresholds struct {
	Indicator    string    `json:"indicator"`
	Breakpoints  []float64 `json:"breakpoints,omitempty"`
	Observations int       `json:"observations"`
	Insufficient bool      `json:"insufficient,omitempty"`
}

// Band returns the zero-based band index for a value.
func (it *IndicatorThresholds) Band(v float64) int {
	i := 0
	for i < len(it.Breakpoints) && v >= it.Breakpoints[i] {
		i++
	}
	return i
}

// ThresholdSet is the calibrated threshold collection for a run. It is
// computed once over the fused historical table and applied read-only
// during scoring.
type ThresholdSet struct {
	Bands      int                            `json:"bands"`
	Indicators map[string]IndicatorThresholds `json:"indicators"`
}

// IndicatorNames returns the calibrated indicator names in sorted order.
func (ts *ThresholdSet) IndicatorNames() []string {
	names := make([]string, 0, len(ts.Indicators))
	for name := range ts.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score is one immutable robustness score row. Observed and Imputed record
// which indicators fed the score directly and which were carried forward;
// this provenance is mandatory output.
type Score struct {
	ISO3     string   `json:"iso3" csv:"iso3"`
	Year     int      `json:"year" csv:"year"`
	Score    float64  `json:"robustness_score" csv:"robustness_score"`
	Band     string   `json:"robustness_band" csv:"robustness_band"`
	Observed []string `json:"indicators_observed" csv:"-"`
	Imputed  []string `json:"indicators_imputed" csv:"-"`
}

// BandNames returns the ordered qualitative band labels for n bands.
func BandNames(n int) []string {
	switch n {
	case 2:
		return []string{"low", "high"}
	case 3:
		return []string{"low", "medium", "high"}
	case 5:
		return []string{"very_low", "low", "medium", "high", "very_high"}
	}
	names := make([]string, n)
	for i := range names {
		names[i] = "band_" + strconv.Itoa(i+1)
	}
	return names
}
