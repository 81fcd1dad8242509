package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/scorer"
	"github.com/galad-data/govdata-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute robustness scores from a built table and thresholds",
	Long: `Compute the weighted robustness score for every (country, year) row
with at least one usable indicator. Missing indicator values are carried
forward from the most recent prior year within the lookback bound.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = filepath.Join(cfg.Store.OutputDir, store.FileCountryYear)
		}
		thresholdsPath, _ := cmd.Flags().GetString("thresholds")
		if thresholdsPath == "" {
			thresholdsPath = filepath.Join(cfg.Store.OutputDir, store.FileThresholds)
		}

		table, err := store.LoadCountryYearCSV(input)
		if err != nil {
			return err
		}
		set, err := store.LoadThresholds(thresholdsPath)
		if err != nil {
			return err
		}

		scores, err := scorer.Score(table, set, scoreOptions())
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.WriteScores(ctx, scores); err != nil {
			return err
		}
		if err := st.Commit(ctx); err != nil {
			return err
		}

		zap.L().Info("score complete", zap.Int("scores", len(scores)))
		fmt.Printf("Scored %d country-year rows\n", len(scores))
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("input", "", "country-year CSV to score (default: store output)")
	scoreCmd.Flags().String("thresholds", "", "thresholds JSON to apply (default: store output)")
	rootCmd.AddCommand(scoreCmd)
}

func scoreOptions() scorer.Options {
	weights := make([]scorer.Weight, 0, len(cfg.Scoring.Weights))
	for _, w := range cfg.Scoring.Weights {
		weights = append(weights, scorer.Weight{
			Column:         w.Column,
			Weight:         w.Weight,
			HigherIsBetter: w.HigherIsBetter,
		})
	}
	return scorer.Options{
		Weights:     weights,
		MaxLookback: cfg.Scoring.MaxLookbackYears,
		Bands:       cfg.Scoring.Bands,
	}
}
