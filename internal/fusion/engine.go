// Package fusion merges resolved source records into the wide country-year
// table and the canonical sub-state entity set.
package fusion

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/registry"
	"github.com/galad-data/govdata-cli/internal/resolve"
)

// SourceData is one source's contribution to a fusion run: the adapter
// output plus the routing metadata fusion needs.
type SourceData struct {
	Name     string
	Prefix   string
	File     string
	Required bool
	Present  bool
	Records  []model.RawRecord
}

// Options controls the fusion window.
type Options struct {
	StartYear int
	EndYear   int
}

// FuseCountries builds the wide country-year table: one row for every
// (member country, window year) pair, with each source's retained columns
// namespaced by its prefix. Structural problems return an error and no
// table; per-record problems land in the report.
func FuseCountries(res *resolve.Resolver, reg *registry.Registry, sources []SourceData, opts Options, report *model.RunReport) (*model.CountryYearTable, error) {
	if opts.StartYear > opts.EndYear {
		return nil, eris.Wrapf(model.ErrEmptyYearRange, "fusion: start %d after end %d", opts.StartYear, opts.EndYear)
	}
	members := res.MemberISO3List()
	if len(members) == 0 {
		return nil, eris.Wrap(model.ErrNoResolvableCountries, "fusion: no in-scope members")
	}

	var absent []string
	for _, src := range sources {
		if src.Present {
			continue
		}
		if src.Required {
			return nil, eris.Wrapf(model.ErrMissingRequiredSource, "fusion: source %s", src.Name)
		}
		absent = append(absent, src.Name)
		report.Warn(fmt.Sprintf("source %s absent, columns omitted", src.Name))
	}
	sort.Strings(absent)
	report.AbsentSources = absent

	table := newGrid(res, members, opts)
	table.AbsentSources = absent

	for _, src := range sources {
		if !src.Present {
			continue
		}
		report.SourceRows[src.Name] = len(src.Records)
		fuseSource(res, reg, table, src, opts, report)
	}

	table.Columns = columnList(reg)
	report.Unresolved = res.UnresolvedAudits()
	report.FuzzyMatches = res.FuzzyAudits()

	zap.L().Info("fusion: country-year table built",
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)),
		zap.Int("unresolved", len(report.Unresolved)),
	)
	return table, nil
}

// newGrid allocates the full row grid up front so a country-year with no
// source data still appears, with all cells null.
func newGrid(res *resolve.Resolver, codes []string, opts Options) *model.CountryYearTable {
	years := opts.EndYear - opts.StartYear + 1

	table := &model.CountryYearTable{
		StartYear: opts.StartYear,
		EndYear:   opts.EndYear,
		Rows:      make([]model.CountryYearRow, 0, len(codes)*years),
	}
	for _, iso3 := range codes {
		id, _ := res.Identity(iso3)
		for year := opts.StartYear; year <= opts.EndYear; year++ {
			table.Rows = append(table.Rows, model.CountryYearRow{
				ISO3:        iso3,
				Year:        year,
				CountryName: id.Name,
				Values:      make(map[string]string),
			})
		}
	}
	return table
}

func fuseSource(res *resolve.Resolver, reg *registry.Registry, table *model.CountryYearTable, src SourceData, opts Options, report *model.RunReport) {
	for _, rec := range src.Records {
		id, _, ok := res.Country(rec.CountryToken, src.Name)
		if !ok {
			continue
		}
		if rec.Year == nil {
			continue
		}
		year := *rec.Year
		if year < opts.StartYear || year > opts.EndYear {
			continue
		}

		row := table.Row(id.ISO3, year)
		if row == nil {
			continue
		}

		for _, col := range sortedFieldNames(rec.Fields) {
			value := rec.Fields[col]
			out := reg.Register(src.Prefix, col, src.File)
			prev, exists := row.Values[out]
			if !exists {
				row.Values[out] = value
				continue
			}
			// First non-empty value wins; a differing duplicate is worth
			// a warning but never overwrites.
			if prev != value {
				report.Warn(fmt.Sprintf("source %s: conflicting values for %s at %s/%d, keeping first", src.Name, out, id.ISO3, year))
			}
		}
	}
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func columnList(reg *registry.Registry) []string {
	prov := reg.Provenance()
	cols := make([]string, 0, len(prov))
	for _, p := range prov {
		cols = append(cols, p.OutputColumn)
	}
	return cols
}
