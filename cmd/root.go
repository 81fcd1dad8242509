package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/config"
	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "govdata",
	Short: "Multi-source governance indicator fusion pipeline",
	Long:  "Fuses country-level governance indicator sources into a wide country-year table, builds the canonical sub-state entity set, calibrates quantile thresholds, and scores institutional robustness.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// abortRun records a structural failure on the report before the error
// propagates. Nothing is published for an aborted run.
func abortRun(report *model.RunReport, err error) error {
	report.Abort(err)
	zap.L().Error("run aborted",
		zap.String("run_id", report.RunID),
		zap.Error(err),
	)
	return err
}

func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		OutputDir:   cfg.Store.OutputDir,
		SQLitePath:  cfg.Store.SQLitePath,
		DatabaseURL: cfg.Store.DatabaseURL,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
