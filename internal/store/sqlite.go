package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the output set to a local SQLite file. The whole
// set goes through one transaction; existing run tables are replaced.
type SQLiteStore struct {
	buffer
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS column_map (
	source_prefix   TEXT NOT NULL,
	original_column TEXT NOT NULL,
	output_column   TEXT NOT NULL PRIMARY KEY,
	source_file     TEXT
);

CREATE TABLE IF NOT EXISTS entities (
	entity_id         TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	country_iso3      TEXT NOT NULL,
	entity_type       TEXT NOT NULL,
	legal_id          TEXT,
	parent_id         TEXT,
	independent       INTEGER NOT NULL,
	founded_year      INTEGER,
	member_count      REAL,
	member_count_year INTEGER,
	funding_usd       REAL,
	funding_year      INTEGER,
	funding_type      TEXT,
	source_name       TEXT,
	source_url        TEXT,
	source_date       TEXT,
	confidence        REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS coverage_gaps (
	iso3          TEXT NOT NULL,
	entity_type   TEXT NOT NULL,
	entity_count  INTEGER NOT NULL,
	coverage_flag TEXT NOT NULL,
	PRIMARY KEY (iso3, entity_type)
);

CREATE TABLE IF NOT EXISTS positions (
	entity_id        TEXT NOT NULL,
	year             INTEGER NOT NULL,
	issue_code       TEXT NOT NULL,
	stance           TEXT NOT NULL,
	evidence_type    TEXT,
	evidence_url     TEXT,
	evidence_snippet TEXT,
	source_name      TEXT,
	source_date      TEXT,
	confidence       REAL
);

CREATE TABLE IF NOT EXISTS issues (
	issue_code  TEXT PRIMARY KEY,
	issue_label TEXT NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS thresholds (
	indicator    TEXT PRIMARY KEY,
	breakpoints  TEXT,
	observations INTEGER NOT NULL,
	insufficient INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	iso3                TEXT NOT NULL,
	year                INTEGER NOT NULL,
	robustness_score    REAL NOT NULL,
	robustness_band     TEXT NOT NULL,
	indicators_observed TEXT,
	indicators_imputed  TEXT,
	PRIMARY KEY (iso3, year)
);

CREATE TABLE IF NOT EXISTS run_reports (
	run_id     TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	report     TEXT NOT NULL
);
`

// NewSQLiteStore opens (or creates) the SQLite file and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Commit(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if s.table != nil {
		if err := s.commitWideTable(ctx, tx); err != nil {
			return err
		}
	}
	if err := s.commitRows(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit tx")
	}
	zap.L().Info("store: sqlite outputs committed")
	return nil
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

// commitWideTable rebuilds the country_year table, whose column set is
// dynamic per run.
func (s *SQLiteStore) commitWideTable(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS country_year`); err != nil {
		return eris.Wrap(err, "sqlite: drop country_year")
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE country_year (\n\tiso3 TEXT NOT NULL,\n\tyear INTEGER NOT NULL,\n\tcountry_name TEXT")
	for _, col := range s.table.Columns {
		fmt.Fprintf(&ddl, ",\n\t%q TEXT", col)
	}
	ddl.WriteString(",\n\tPRIMARY KEY (iso3, year)\n)")
	if _, err := tx.ExecContext(ctx, ddl.String()); err != nil {
		return eris.Wrap(err, "sqlite: create country_year")
	}

	cols := []string{"iso3", "year", "country_name"}
	for _, col := range s.table.Columns {
		cols = append(cols, fmt.Sprintf("%q", col))
	}
	insert := fmt.Sprintf("INSERT INTO country_year (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders(len(cols)))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare country_year insert")
	}
	defer stmt.Close()

	for i := range s.table.Rows {
		r := &s.table.Rows[i]
		args := make([]any, 0, len(cols))
		args = append(args, r.ISO3, r.Year, r.CountryName)
		for _, col := range s.table.Columns {
			if v, ok := r.Values[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert country_year %s/%d", r.ISO3, r.Year)
		}
	}
	return nil
}

func (s *SQLiteStore) commitRows(ctx context.Context, tx *sql.Tx) error {
	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	for _, c := range s.columns {
		if err := exec(`INSERT OR REPLACE INTO column_map (source_prefix, original_column, output_column, source_file) VALUES (?, ?, ?, ?)`,
			c.SourcePrefix, c.OriginalColumn, c.OutputColumn, c.SourceFile); err != nil {
			return eris.Wrap(err, "sqlite: insert column_map")
		}
	}

	for i := range s.entities {
		e := &s.entities[i]
		if err := exec(`INSERT OR REPLACE INTO entities (entity_id, name, country_iso3, entity_type, legal_id, parent_id, independent, founded_year, member_count, member_count_year, funding_usd, funding_year, funding_type, source_name, source_url, source_date, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.EntityID, e.Name, e.ISO3, string(e.Type), e.LegalID, e.ParentID, e.Independent,
			e.FoundedYear, e.MemberCount, e.MemberCountYear, e.FundingUSD, e.FundingYear,
			e.FundingType, e.SourceName, e.SourceURL, e.SourceDate.Format("2006-01-02"), e.Confidence); err != nil {
			return eris.Wrapf(err, "sqlite: insert entity %s", e.EntityID)
		}
	}

	for _, g := range s.gaps {
		if err := exec(`INSERT OR REPLACE INTO coverage_gaps (iso3, entity_type, entity_count, coverage_flag) VALUES (?, ?, ?, ?)`,
			g.ISO3, string(g.Type), g.EntityCount, g.Flag); err != nil {
			return eris.Wrap(err, "sqlite: insert coverage_gaps")
		}
	}

	for i := range s.positions {
		p := &s.positions[i]
		if err := exec(`INSERT INTO positions (entity_id, year, issue_code, stance, evidence_type, evidence_url, evidence_snippet, source_name, source_date, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.EntityID, p.Year, p.IssueCode, string(p.Stance), p.EvidenceType, p.EvidenceURL,
			p.EvidenceSnippet, p.SourceName, p.SourceDate.Format("2006-01-02"), p.Confidence); err != nil {
			return eris.Wrapf(err, "sqlite: insert position %s", p.EntityID)
		}
	}

	for _, iss := range s.issues {
		if err := exec(`INSERT OR REPLACE INTO issues (issue_code, issue_label, description) VALUES (?, ?, ?)`,
			iss.Code, iss.Label, iss.Description); err != nil {
			return eris.Wrap(err, "sqlite: insert issues")
		}
	}

	if s.thresholds != nil {
		for _, name := range s.thresholds.IndicatorNames() {
			th := s.thresholds.Indicators[name]
			bps, err := json.Marshal(th.Breakpoints)
			if err != nil {
				return eris.Wrap(err, "sqlite: marshal breakpoints")
			}
			if err := exec(`INSERT OR REPLACE INTO thresholds (indicator, breakpoints, observations, insufficient) VALUES (?, ?, ?, ?)`,
				name, string(bps), th.Observations, th.Insufficient); err != nil {
				return eris.Wrapf(err, "sqlite: insert thresholds %s", name)
			}
		}
	}

	for i := range s.scores {
		sc := &s.scores[i]
		if err := exec(`INSERT OR REPLACE INTO scores (iso3, year, robustness_score, robustness_band, indicators_observed, indicators_imputed) VALUES (?, ?, ?, ?, ?, ?)`,
			sc.ISO3, sc.Year, sc.Score, sc.Band,
			strings.Join(sc.Observed, "|"), strings.Join(sc.Imputed, "|")); err != nil {
			return eris.Wrapf(err, "sqlite: insert score %s/%d", sc.ISO3, sc.Year)
		}
	}

	if s.report != nil {
		blob, err := json.Marshal(s.report)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal run report")
		}
		if err := exec(`INSERT OR REPLACE INTO run_reports (run_id, started_at, report) VALUES (?, ?, ?)`,
			s.report.RunID, s.report.StartedAt.Format("2006-01-02T15:04:05Z07:00"), string(blob)); err != nil {
			return eris.Wrap(err, "sqlite: insert run report")
		}
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
