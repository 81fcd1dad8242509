package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/dedupe"
	"github.com/galad-data/govdata-cli/internal/fusion"
	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/source"
)

var substateCmd = &cobra.Command{
	Use:   "substate",
	Short: "Build the canonical sub-state entity set",
	Long: `Merge sub-state entity seed files into one canonical record per
organization, roll sub-entities up to their parents, apply the relevance
filter, and validate issue positions against the surviving entities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "substate"))

		report := model.NewRunReport(uuid.NewString())
		out, err := buildSubstate(ctx, report)
		if err != nil {
			return abortRun(report, err)
		}
		report.Finish()

		st, err := openStore(ctx)
		if err != nil {
			return abortRun(report, err)
		}
		defer st.Close()

		if err := st.WriteEntities(ctx, out.Entities); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteCoverageGaps(ctx, out.Gaps); err != nil {
			return abortRun(report, err)
		}
		if err := st.WritePositions(ctx, out.Positions); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteIssues(ctx, model.DefaultIssueCatalog()); err != nil {
			return abortRun(report, err)
		}
		if err := st.WriteRunReport(ctx, report); err != nil {
			return abortRun(report, err)
		}
		if err := st.Commit(ctx); err != nil {
			return abortRun(report, err)
		}

		log.Info("substate complete",
			zap.Int("entities", len(out.Entities)),
			zap.Int("positions", len(out.Positions)),
		)
		fmt.Printf("Canonical set: %d entities, %d positions (%d dropped for missing evidence)\n",
			len(out.Entities), len(out.Positions), report.InvalidEvidence)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(substateCmd)
}

// substateOutput bundles the artifacts of one sub-state build.
type substateOutput struct {
	Entities  []model.Entity
	Gaps      []model.CoverageGap
	Positions []model.Position
}

func buildSubstate(ctx context.Context, report *model.RunReport) (*substateOutput, error) {
	records, err := source.ReadEntitySeeds(ctx, cfg.Substate.EntityPaths)
	if err != nil {
		return nil, err
	}
	positions, err := source.ReadPositionSeeds(ctx, cfg.Substate.PositionPaths)
	if err != nil {
		return nil, err
	}
	overrides, err := source.LoadEntityOverrides(cfg.Substate.OverridesPath)
	if err != nil {
		return nil, err
	}

	merged, remap := fusion.MergeEntities(records)
	rolled, absorbed, err := dedupe.RollUp(merged, report)
	if err != nil {
		return nil, err
	}
	// Positions on an absorbed sub-entity follow it to the parent.
	for from, to := range remap {
		if target, ok := absorbed[to]; ok {
			remap[from] = target
		}
	}
	for from, to := range absorbed {
		remap[from] = to
	}

	kept, excluded := dedupe.Filter(rolled, dedupe.FilterOptions{
		MinMembers:    cfg.Substate.MinMembers,
		MinFundingUSD: cfg.Substate.MinFundingUSD,
		Overrides:     overrides,
	})
	if len(excluded) > 0 {
		report.Warn(fmt.Sprintf("relevance filter excluded %d entities", len(excluded)))
	}

	members, err := source.LoadMembership(cfg.Membership.Path)
	if err != nil {
		return nil, err
	}
	countries := make([]string, 0, len(members))
	for _, m := range members {
		if m.Member {
			countries = append(countries, m.ISO3)
		}
	}

	return &substateOutput{
		Entities:  kept,
		Gaps:      dedupe.CoverageGaps(kept, countries),
		Positions: fusion.ValidatePositions(positions, kept, remap, report),
	}, nil
}
