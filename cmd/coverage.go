package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/galad-data/govdata-cli/internal/store"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize data coverage of a built table",
	Long: `Print per-source and per-country coverage of a built country-year
table: how many cells each source actually filled, and which countries
have the thinnest data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = filepath.Join(cfg.Store.OutputDir, store.FileCountryYear)
		}

		table, err := store.LoadCountryYearCSV(input)
		if err != nil {
			return err
		}

		// Cells filled per source prefix.
		bySource := map[string]int{}
		totals := map[string]int{}
		for _, col := range table.Columns {
			prefix, _, _ := strings.Cut(col, "__")
			totals[prefix] += len(table.Rows)
			for i := range table.Rows {
				if _, ok := table.Rows[i].Values[col]; ok {
					bySource[prefix]++
				}
			}
		}

		prefixes := make([]string, 0, len(totals))
		for p := range totals {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)

		fmt.Println("Source coverage:")
		for _, p := range prefixes {
			fmt.Printf("  %-20s %6.1f%% (%d/%d cells)\n",
				p, 100*float64(bySource[p])/float64(totals[p]), bySource[p], totals[p])
		}

		// Countries ranked by fill rate, thinnest first.
		type countryFill struct {
			iso3   string
			filled int
			cells  int
		}
		byCountry := map[string]*countryFill{}
		for i := range table.Rows {
			r := &table.Rows[i]
			cf, ok := byCountry[r.ISO3]
			if !ok {
				cf = &countryFill{iso3: r.ISO3}
				byCountry[r.ISO3] = cf
			}
			cf.cells += len(table.Columns)
			cf.filled += len(r.Values)
		}
		fills := make([]*countryFill, 0, len(byCountry))
		for _, cf := range byCountry {
			fills = append(fills, cf)
		}
		sort.Slice(fills, func(i, j int) bool {
			ri := float64(fills[i].filled) / float64(fills[i].cells)
			rj := float64(fills[j].filled) / float64(fills[j].cells)
			if ri != rj {
				return ri < rj
			}
			return fills[i].iso3 < fills[j].iso3
		})

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > len(fills) {
			limit = len(fills)
		}
		fmt.Printf("\nThinnest %d countries:\n", limit)
		for _, cf := range fills[:limit] {
			fmt.Printf("  %s %6.1f%% (%d/%d cells)\n",
				cf.iso3, 100*float64(cf.filled)/float64(cf.cells), cf.filled, cf.cells)
		}

		// Countries with no data at all from a source.
		perCountry := map[string]map[string]int{}
		for _, col := range table.Columns {
			prefix, _, _ := strings.Cut(col, "__")
			for i := range table.Rows {
				r := &table.Rows[i]
				if perCountry[r.ISO3] == nil {
					perCountry[r.ISO3] = map[string]int{}
				}
				if _, ok := r.Values[col]; ok {
					perCountry[r.ISO3][prefix]++
				}
			}
		}
		isos := make([]string, 0, len(perCountry))
		for iso := range perCountry {
			isos = append(isos, iso)
		}
		sort.Strings(isos)
		fmt.Println("\nMissing source data:")
		for _, iso := range isos {
			var missing []string
			for _, p := range prefixes {
				if perCountry[iso][p] == 0 {
					missing = append(missing, p)
				}
			}
			if len(missing) > 0 {
				fmt.Printf("  %s: %s\n", iso, strings.Join(missing, ", "))
			}
		}
		return nil
	},
}

func init() {
	coverageCmd.Flags().String("input", "", "country-year CSV to inspect (default: store output)")
	coverageCmd.Flags().Int("limit", 10, "number of thinnest countries to list")
	rootCmd.AddCommand(coverageCmd)
}
