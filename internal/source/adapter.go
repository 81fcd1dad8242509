// Package source implements the adapter contract that hands already-parsed
// tabular records to the fusion engine, plus file-backed adapters for CSV
// and XLSX sources and loaders for the membership and override tables.
package source

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/galad-data/govdata-cli/internal/config"
	"github.com/galad-data/govdata-cli/internal/model"
)

// Adapter is the shape every source presents to the fusion layer.
type Adapter interface {
	// Name returns the unique source name (e.g. "vdem").
	Name() string

	// Prefix returns the column namespace prefix for this source.
	Prefix() string

	// Required reports whether a missing file aborts the run.
	Required() bool

	// Read parses the source into raw records. Present is false when the
	// underlying file is entirely absent, as opposed to sparse.
	Read(ctx context.Context) (records []model.RawRecord, present bool, err error)
}

// countryTokenColumns are recognized ISO3/country-code column headers, in
// detection priority order.
var countryTokenColumns = []string{
	"iso3", "iso3c", "country_text_id", "country_code", "country_iso3",
	"cca3", "ISO3", "Country Code",
}

// countryNameColumns are recognized free-text country name headers.
var countryNameColumns = []string{
	"Country/Territory", "Country", "country", "Territory",
	"Country name", "Country Name", "Jurisdiction", "jurisdiction",
}

// yearColumns are recognized year headers.
var yearColumns = []string{"year", "Year", "edition", "Edition", "date"}

// FileAdapter reads one configured source file into raw records. The
// country token column is detected from known header candidates, preferring
// ISO3-style codes over free-text names; the year column likewise.
type FileAdapter struct {
	cfg config.SourceConfig
}

// NewFileAdapter creates an adapter for one configured source.
func NewFileAdapter(cfg config.SourceConfig) *FileAdapter {
	return &FileAdapter{cfg: cfg}
}

func (a *FileAdapter) Name() string   { return a.cfg.Name }
func (a *FileAdapter) Prefix() string { return a.cfg.Prefix }
func (a *FileAdapter) Required() bool { return a.cfg.Required }

// Read parses the configured file (or its alternate) into raw records.
func (a *FileAdapter) Read(ctx context.Context) ([]model.RawRecord, bool, error) {
	path := pickPath(a.cfg.Path, a.cfg.AltPath)
	if path == "" {
		return nil, false, nil
	}

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(a.cfg.Format) {
	case "xlsx":
		header, rows, err = ReadXLSXTable(path, a.cfg.Sheet)
	case "csv", "":
		header, rows, err = ReadCSVTable(ctx, path)
	default:
		return nil, true, eris.Errorf("source %s: unknown format %q", a.cfg.Name, a.cfg.Format)
	}
	if err != nil {
		return nil, true, eris.Wrapf(err, "source %s: read %s", a.cfg.Name, path)
	}

	records, err := a.toRecords(header, rows, path)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

func (a *FileAdapter) toRecords(header []string, rows [][]string, path string) ([]model.RawRecord, error) {
	tokenIdx := findColumn(header, countryTokenColumns)
	nameIdx := findColumn(header, countryNameColumns)
	if tokenIdx < 0 && nameIdx < 0 {
		return nil, eris.Errorf("source %s: no country column in %s", a.cfg.Name, path)
	}
	if tokenIdx < 0 {
		tokenIdx = nameIdx
	}

	yearIdx := findColumn(header, yearColumns)
	if yearIdx < 0 && a.cfg.FixedYear == 0 {
		return nil, eris.Errorf("source %s: no year column in %s and no fixed_year configured", a.cfg.Name, path)
	}

	fingerprint := model.SourceFingerprint{
		Name:       a.cfg.Name,
		File:       path,
		IngestedAt: time.Now().UTC(),
	}

	records := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		if tokenIdx >= len(row) {
			continue
		}
		token := strings.TrimSpace(row[tokenIdx])
		if token == "" {
			continue
		}

		rec := model.RawRecord{
			CountryToken: token,
			Fields:       make(map[string]string),
			Source:       fingerprint,
		}

		if yearIdx >= 0 {
			if yearIdx < len(row) {
				if y, err := parseYear(row[yearIdx]); err == nil {
					rec.Year = &y
				}
			}
		} else {
			y := a.cfg.FixedYear
			rec.Year = &y
		}

		for i, col := range header {
			if i == tokenIdx || i == yearIdx || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec.Fields[col] = v
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func pickPath(primary, alt string) string {
	if primary != "" {
		if _, err := os.Stat(primary); err == nil {
			return primary
		}
	}
	if alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func findColumn(header []string, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if strings.TrimSpace(h) == c {
				return i
			}
		}
	}
	return -1
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	// Date-like cells ("2023-05-01") carry the year up front.
	if len(s) > 4 && (s[4] == '-' || s[4] == '/') {
		s = s[:4]
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "parse year %q", s)
	}
	return y, nil
}
