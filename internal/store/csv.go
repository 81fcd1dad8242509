package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// Output file names, shared with the read-back helpers.
const (
	FileCountryYear  = "country_year.csv"
	FileColumnMap    = "column_map.csv"
	FileEntities     = "entities.csv"
	FileCoverageGaps = "coverage_gaps.csv"
	FilePositions    = "positions.csv"
	FileIssues       = "issues.csv"
	FileThresholds   = "thresholds.json"
	FileScores       = "scores.csv"
	FileRunReport    = "run_report.json"
)

// CSVStore writes the output set as CSV and JSON files. Everything lands
// in a staging directory first and moves into the output directory only
// when the full set has been written.
type CSVStore struct {
	buffer
	dir string
}

// NewCSVStore creates a CSV store targeting dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

func (s *CSVStore) Commit(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "csv: create output dir")
	}
	staging, err := os.MkdirTemp(s.dir, ".staging-")
	if err != nil {
		return eris.Wrap(err, "csv: create staging dir")
	}
	defer os.RemoveAll(staging)

	files, err := s.writeAll(ctx, staging)
	if err != nil {
		return err
	}

	for _, name := range files {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(s.dir, name)); err != nil {
			return eris.Wrapf(err, "csv: publish %s", name)
		}
	}

	zap.L().Info("store: csv outputs committed",
		zap.String("dir", s.dir),
		zap.Int("files", len(files)),
	)
	return nil
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) writeAll(ctx context.Context, staging string) ([]string, error) {
	var files []string

	write := func(name string, fn func(path string) error) error {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		if err := fn(filepath.Join(staging, name)); err != nil {
			return err
		}
		files = append(files, name)
		return nil
	}

	if s.table != nil {
		if err := write(FileCountryYear, func(p string) error { return writeWideTable(p, s.table) }); err != nil {
			return nil, err
		}
	}
	if s.columns != nil {
		if err := write(FileColumnMap, func(p string) error { return writeCSVFile(p, s.columns) }); err != nil {
			return nil, err
		}
	}
	if s.entities != nil {
		if err := write(FileEntities, func(p string) error { return writeCSVFile(p, s.entities) }); err != nil {
			return nil, err
		}
	}
	if s.gaps != nil {
		if err := write(FileCoverageGaps, func(p string) error { return writeCSVFile(p, s.gaps) }); err != nil {
			return nil, err
		}
	}
	if s.positions != nil {
		if err := write(FilePositions, func(p string) error { return writeCSVFile(p, s.positions) }); err != nil {
			return nil, err
		}
	}
	if s.issues != nil {
		if err := write(FileIssues, func(p string) error { return writeCSVFile(p, s.issues) }); err != nil {
			return nil, err
		}
	}
	if s.thresholds != nil {
		if err := write(FileThresholds, func(p string) error { return writeJSONFile(p, s.thresholds) }); err != nil {
			return nil, err
		}
	}
	if s.scores != nil {
		if err := write(FileScores, func(p string) error { return writeScoresCSV(p, s.scores) }); err != nil {
			return nil, err
		}
	}
	if s.report != nil {
		if err := write(FileRunReport, func(p string) error { return writeJSONFile(p, s.report) }); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// writeWideTable hand-rolls the country-year CSV because its column set is
// dynamic per run; csvutil needs a fixed struct shape.
func writeWideTable(path string, table *model.CountryYearTable) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create country-year file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"iso3", "year", "country_name"}, table.Columns...)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "csv: write country-year header")
	}

	row := make([]string, len(header))
	for i := range table.Rows {
		r := &table.Rows[i]
		row[0] = r.ISO3
		row[1] = strconv.Itoa(r.Year)
		row[2] = r.CountryName
		for j, col := range table.Columns {
			row[3+j] = r.Values[col] // missing key stays ""
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write country-year row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "csv: flush country-year file")
}

// scoreRow flattens the indicator provenance slices for CSV output.
type scoreRow struct {
	ISO3     string  `csv:"iso3"`
	Year     int     `csv:"year"`
	Score    float64 `csv:"robustness_score"`
	Band     string  `csv:"robustness_band"`
	Observed string  `csv:"indicators_observed"`
	Imputed  string  `csv:"indicators_imputed"`
}

func writeScoresCSV(path string, scores []model.Score) error {
	rows := make([]scoreRow, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, scoreRow{
			ISO3:     s.ISO3,
			Year:     s.Year,
			Score:    s.Score,
			Band:     s.Band,
			Observed: strings.Join(s.Observed, "|"),
			Imputed:  strings.Join(s.Imputed, "|"),
		})
	}
	return writeCSVFile(path, rows)
}

func writeCSVFile[T any](path string, rows []T) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "csv: marshal %s", filepath.Base(path))
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "csv: write %s", filepath.Base(path))
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "json: marshal %s", filepath.Base(path))
	}
	data = append(data, '\n')
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "json: write %s", filepath.Base(path))
}

// LoadCountryYearCSV reads a previously committed country-year table so
// calibrate and score can run standalone from a build output.
func LoadCountryYearCSV(path string) (*model.CountryYearTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open country-year file")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read country-year file")
	}
	if len(records) == 0 || len(records[0]) < 3 {
		return nil, eris.New("csv: country-year file missing header")
	}

	header := records[0]
	table := &model.CountryYearTable{
		Columns: append([]string(nil), header[3:]...),
	}
	for _, rec := range records[1:] {
		year, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, eris.Wrapf(err, "csv: bad year %q", rec[1])
		}
		row := model.CountryYearRow{
			ISO3:        rec[0],
			Year:        year,
			CountryName: rec[2],
			Values:      make(map[string]string),
		}
		for j, col := range table.Columns {
			if v := rec[3+j]; v != "" {
				row.Values[col] = v
			}
		}
		if table.StartYear == 0 || year < table.StartYear {
			table.StartYear = year
		}
		if year > table.EndYear {
			table.EndYear = year
		}
		table.Rows = append(table.Rows, row)
	}
	// Row lookups binary-search on (ISO3, Year); an externally edited
	// file may not be in order.
	sort.Slice(table.Rows, func(i, j int) bool {
		if table.Rows[i].ISO3 != table.Rows[j].ISO3 {
			return table.Rows[i].ISO3 < table.Rows[j].ISO3
		}
		return table.Rows[i].Year < table.Rows[j].Year
	})
	return table, nil
}

// LoadThresholds reads a committed threshold set.
func LoadThresholds(path string) (*model.ThresholdSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "json: read thresholds")
	}
	var set model.ThresholdSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, eris.Wrap(err, "json: parse thresholds")
	}
	return &set, nil
}
