// Package calibrate derives quantile band thresholds from the observed
// distribution of each indicator in the fused table.
package calibrate

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// Options controls threshold derivation.
type Options struct {
	Bands           int
	MinObservations int
}

// Calibrate computes per-indicator quantile breakpoints over every
// non-null numeric cell in the table. Indicators with fewer observations
// than the minimum are marked insufficient instead of getting unstable
// breakpoints. The run fails only when no indicator clears the minimum.
func Calibrate(table *model.CountryYearTable, indicators []string, opts Options) (*model.ThresholdSet, error) {
	if opts.Bands < 2 {
		return nil, eris.Errorf("calibrate: need at least 2 bands, got %d", opts.Bands)
	}

	set := &model.ThresholdSet{
		Bands:      opts.Bands,
		Indicators: make(map[string]model.IndicatorThresholds, len(indicators)),
	}

	sorted := append([]string(nil), indicators...)
	sort.Strings(sorted)

	usable := 0
	for _, name := range sorted {
		values := collect(table, name)
		th := model.IndicatorThresholds{
			Indicator:    name,
			Observations: len(values),
		}
		if len(values) == 0 || len(values) < opts.MinObservations {
			th.Insufficient = true
			zap.L().Warn("calibrate: indicator below observation minimum",
				zap.String("indicator", name),
				zap.Int("observations", len(values)),
				zap.Int("minimum", opts.MinObservations),
			)
		} else {
			th.Breakpoints = breakpoints(values, opts.Bands)
			usable++
		}
		set.Indicators[name] = th
	}

	if usable == 0 {
		return nil, eris.Wrap(model.ErrInsufficientData, "calibrate: no indicator has enough observations")
	}

	zap.L().Info("calibrate: thresholds derived",
		zap.Int("indicators", usable),
		zap.Int("insufficient", len(sorted)-usable),
		zap.Int("bands", opts.Bands),
	)
	return set, nil
}

func collect(table *model.CountryYearTable, column string) []float64 {
	var values []float64
	for i := range table.Rows {
		if v, ok := table.Rows[i].Float(column); ok {
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	return values
}

// breakpoints returns bands-1 interior quantiles of the sorted values,
// using linear interpolation between order statistics.
func breakpoints(sorted []float64, bands int) []float64 {
	bps := make([]float64, 0, bands-1)
	for i := 1; i < bands; i++ {
		q := float64(i) / float64(bands)
		bps = append(bps, quantile(sorted, q))
	}
	return bps
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
