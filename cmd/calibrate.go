package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/calibrate"
	"github.com/galad-data/govdata-cli/internal/store"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Derive quantile band thresholds from a built table",
	Long: `Derive per-indicator quantile breakpoints from a previously built
country-year table. Thresholds are computed once over the full observed
distribution and applied read-only during scoring.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = filepath.Join(cfg.Store.OutputDir, store.FileCountryYear)
		}

		table, err := store.LoadCountryYearCSV(input)
		if err != nil {
			return err
		}

		set, err := calibrate.Calibrate(table, weightColumns(), calibrate.Options{
			Bands:           cfg.Calibration.Bands,
			MinObservations: cfg.Calibration.MinObservations,
		})
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.WriteThresholds(ctx, set); err != nil {
			return err
		}
		if err := st.Commit(ctx); err != nil {
			return err
		}

		zap.L().Info("calibrate complete", zap.Int("indicators", len(set.Indicators)))
		fmt.Printf("Calibrated %d indicators into %d bands\n", len(set.Indicators), set.Bands)
		return nil
	},
}

func init() {
	calibrateCmd.Flags().String("input", "", "country-year CSV to calibrate from (default: store output)")
	rootCmd.AddCommand(calibrateCmd)
}

func weightColumns() []string {
	cols := make([]string, 0, len(cfg.Scoring.Weights))
	for _, w := range cfg.Scoring.Weights {
		cols = append(cols, w.Column)
	}
	return cols
}
