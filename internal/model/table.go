package model

import (
	"sort"
	"strconv"
	"strings"
)

// CountryYearRow is one row of the wide table, keyed by (ISO3, Year).
// Values maps namespaced output column -> raw value; a missing key is an
// explicit null, never zero.
type CountryYearRow struct {
	ISO3        string
	Year        int
	CountryName string
	Values      map[string]string
}

// Value returns the cell for the given output column, or ok=false when null.
func (r *CountryYearRow) Value(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Float returns the cell parsed as a float, or ok=false when the cell is
// null or not numeric.
func (r *CountryYearRow) Float(column string) (float64, bool) {
	raw, ok := r.Values[column]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CountryYearTable is the fused wide table: exactly one row per (country,
// year) within the window, sorted by (ISO3, Year). AbsentSources lists
// sources that were structurally absent for the run, as opposed to present
// sources with null cells.
type CountryYearTable struct {
	StartYear     int
	EndYear       int
	Columns       []string
	AbsentSources []string
	Rows          []CountryYearRow
}

// Row returns the row for (iso3, year), or nil if outside the grid.
func (t *CountryYearTable) Row(iso3 string, year int) *CountryYearRow {
	i := sort.Search(len(t.Rows), func(i int) bool {
		r := &t.Rows[i]
		if r.ISO3 != iso3 {
			return r.ISO3 > iso3
		}
		return r.Year >= year
	})
	if i < len(t.Rows) && t.Rows[i].ISO3 == iso3 && t.Rows[i].Year == year {
		return &t.Rows[i]
	}
	return nil
}
