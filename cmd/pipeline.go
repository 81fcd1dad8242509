package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/calibrate"
	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/registry"
	"github.com/galad-data/govdata-cli/internal/scorer"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run build, substate, calibrate, and score as one atomic run",
	Long: `Run the full pipeline in order and commit every artifact in one
store transaction. Either the complete output set lands, or nothing does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "pipeline"))

		report := model.NewRunReport(uuid.NewString())

		res, err := buildResolver()
		if err != nil {
			return abortRun(report, err)
		}
		reg := registry.New()
		table, err := buildTable(ctx, res, reg, report)
		if err != nil {
			return abortRun(report, err)
		}

		substate, err := buildSubstate(ctx, report)
		if err != nil {
			return abortRun(report, err)
		}

		set, err := calibrate.Calibrate(table, weightColumns(), calibrate.Options{
			Bands:           cfg.Calibration.Bands,
			MinObservations: cfg.Calibration.MinObservations,
		})
		if err != nil {
			return abortRun(report, err)
		}

		scores, err := scorer.Score(table, set, scoreOptions())
		if err != nil {
			return abortRun(report, err)
		}
		report.Finish()

		st, err := openStore(ctx)
		if err != nil {
			return abortRun(report, err)
		}
		defer st.Close()

		if err := st.WriteCountryYear(ctx, table); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteColumnMap(ctx, reg.Provenance()); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteEntities(ctx, substate.Entities); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteCoverageGaps(ctx, substate.Gaps); err != nil {
			return abortRun(report, err)
		}
		if err := st.WritePositions(ctx, substate.Positions); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteIssues(ctx, model.DefaultIssueCatalog()); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteThresholds(ctx, set); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteScores(ctx, scores); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteRunReport(ctx, report); err != nil {
			return abortRun(report, err)
		}
		if err := st.Commit(ctx); err != nil {
			return abortRun(report, err)
		}

		log.Info("pipeline complete",
			zap.String("run_id", report.RunID),
			zap.Int("rows", len(table.Rows)),
			zap.Int("entities", len(substate.Entities)),
			zap.Int("scores", len(scores)),
		)
		fmt.Printf("Run %s: %d rows, %d entities, %d scores\n",
			report.RunID, len(table.Rows), len(substate.Entities), len(scores))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}
