package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/galad-data/govdata-cli/internal/config"
	"github.com/galad-data/govdata-cli/internal/fusion"
	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/registry"
	"github.com/galad-data/govdata-cli/internal/resolve"
	"github.com/galad-data/govdata-cli/internal/source"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the fused country-year table",
	Long: `Build the wide country-year table from the configured sources.

Each source's retained columns are namespaced by its prefix, country
tokens are resolved against the membership list, and the output is one
row per (country, year) in the configured window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "build"))

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
		if err := st.WriteRunReport(ctx, report); err != nil {
			return abortRun(report, err)
		}
		if err := st.Commit(ctx); err != nil {
			return abortRun(report, err)
		}

		log.Info("build complete",
			zap.Int("rows", len(table.Rows)),
			zap.Int("columns", len(table.Columns)),
		)
		fmt.Printf("Built %d rows x %d columns (%d unresolved tokens)\n",
			len(table.Rows), len(table.Columns), len(report.Unresolved))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func buildResolver() (*resolve.Resolver, error) {
	members, err := source.LoadMembership(cfg.Membership.Path)
	if err != nil {
		return nil, err
	}
	overrides, err := source.LoadCountryOverrides(cfg.Membership.OverridesPath)
	if err != nil {
		return nil, err
	}
	return resolve.NewResolver(members, overrides, cfg.Resolver.FuzzyThreshold), nil
}

// readSources reads all configured source files in parallel.
func readSources(ctx context.Context) ([]fusion.SourceData, error) {
	data := make([]fusion.SourceData, len(cfg.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range cfg.Sources {
		i, src := i, src
		g.Go(func() error {
			adapter := source.NewFileAdapter(src)
			records, present, err := adapter.Read(gctx)
			if err != nil {
				return eris.Wrapf(err, "build: read source %s", src.Name)
			}
			data[i] = fusion.SourceData{
				Name:     src.Name,
				Prefix:   src.Prefix,
				File:     sourceFile(src),
				Required: src.Required,
				Present:  present,
				Records:  records,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func buildTable(ctx context.Context, res *resolve.Resolver, reg *registry.Registry, report *model.RunReport) (*model.CountryYearTable, error) {
	sources, err := readSources(ctx)
	if err != nil {
		return nil, err
	}
	return fusion.FuseCountries(res, reg, sources, fusion.Options{
		StartYear: cfg.Window.StartYear,
		EndYear:   cfg.Window.EndYear,
	}, report)
}

func sourceFile(src config.SourceConfig) string {
	if src.Path != "" {
		return src.Path
	}
	return src.AltPath
}
