// Package scorer computes weighted robustness scores from the fused table
// and a calibrated threshold set.
package scorer

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// Weight assigns one indicator column its contribution to the composite
// score. HigherIsBetter=false flips the indicator's band so that all
// contributions point the same direction.
type Weight struct {
	Column         string
	Weight         float64
	HigherIsBetter bool
}

// Options controls scoring.
type Options struct {
	Weights     []Weight
	MaxLookback int
	Bands       int
}

// Score computes one composite score per (country, year) row that has at
// least one usable indicator. A missing indicator value is carried forward
// from the most recent prior year within the lookback bound; an indicator
// with no prior value simply drops out of that row's score. The composite
// is normalized by the weight actually used, so a dropped indicator never
// drags the score toward zero.
func Score(table *model.CountryYearTable, thresholds *model.ThresholdSet, opts Options) ([]model.Score, error) {
	if len(opts.Weights) == 0 {
		return nil, eris.New("scorer: no indicator weights configured")
	}
	if thresholds == nil || len(thresholds.Indicators) == 0 {
		return nil, eris.New("scorer: empty threshold set")
	}

	weights := append([]Weight(nil), opts.Weights...)
	sort.Slice(weights, func(i, j int) bool { return weights[i].Column < weights[j].Column })

	bandNames := model.BandNames(opts.Bands)

	var scores []model.Score
	skipped := 0
	for i := range table.Rows {
		row := &table.Rows[i]
		s, ok := scoreRow(table, row, thresholds, weights, opts.MaxLookback)
		if !ok {
			skipped++
			continue
		}
		s.Band = bandLabel(s.Score, bandNames)
		scores = append(scores, s)
	}

	zap.L().Info("scorer: robustness scores computed",
		zap.Int("scores", len(scores)),
		zap.Int("skipped_rows", skipped),
	)
	return scores, nil
}

func scoreRow(table *model.CountryYearTable, row *model.CountryYearRow, thresholds *model.ThresholdSet, weights []Weight, lookback int) (model.Score, bool) {
	s := model.Score{ISO3: row.ISO3, Year: row.Year}

	var sum, wsum float64
	for _, w := range weights {
		th, ok := thresholds.Indicators[w.Column]
		if !ok || th.Insufficient {
			continue
		}

		value, imputed, found := lookupValue(table, row, w.Column, lookback)
		if !found {
			continue
		}

		normalized := bandFraction(&th, thresholds.Bands, value)
		if !w.HigherIsBetter {
			normalized = 1 - normalized
		}
		sum += w.Weight * normalized
		wsum += w.Weight

		if imputed {
			s.Imputed = append(s.Imputed, w.Column)
		} else {
			s.Observed = append(s.Observed, w.Column)
		}
	}

	if wsum == 0 {
		return model.Score{}, false
	}
	s.Score = 100 * sum / wsum
	return s, true
}

// lookupValue returns the row's own value, or the most recent prior value
// within the lookback window. The second return reports whether the value
// was carried forward.
func lookupValue(table *model.CountryYearTable, row *model.CountryYearRow, column string, lookback int) (float64, bool, bool) {
	if v, ok := row.Float(column); ok {
		return v, false, true
	}
	for back := 1; back <= lookback; back++ {
		year := row.Year - back
		if year < table.StartYear {
			break
		}
		prior := table.Row(row.ISO3, year)
		if prior == nil {
			continue
		}
		if v, ok := prior.Float(column); ok {
			return v, true, true
		}
	}
	return 0, false, false
}

// bandFraction maps a value's band index onto [0, 1].
func bandFraction(th *model.IndicatorThresholds, bands int, v float64) float64 {
	if bands <= 1 {
		return 1
	}
	return float64(th.Band(v)) / float64(bands-1)
}

func bandLabel(score float64, names []string) string {
	if len(names) == 0 {
		return ""
	}
	idx := int(score / 100 * float64(len(names)))
	if idx >= len(names) {
		idx = len(names) - 1
	}
	return names[idx]
}
