package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/db"
)

// PostgresStore persists the output set through a pgx pool. Everything
// commits in one transaction, with COPY for the bulk tables.
type PostgresStore struct {
	buffer
	pool db.Pool
}

const postgresMigration = `
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
	independent       BOOLEAN NOT NULL,
	founded_year      INTEGER,
	member_count      DOUBLE PRECISION,
	member_count_year INTEGER,
	funding_usd       DOUBLE PRECISION,
	funding_year      INTEGER,
	funding_type      TEXT,
	source_name       TEXT,
	source_url        TEXT,
	source_date       DATE,
	confidence        DOUBLE PRECISION NOT NULL
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
	source_date      DATE,
	confidence       DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS issues (
	issue_code  TEXT PRIMARY KEY,
	issue_label TEXT NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS thresholds (
	indicator    TEXT PRIMARY KEY,
	breakpoints  JSONB,
	observations INTEGER NOT NULL,
	insufficient BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	iso3                TEXT NOT NULL,
	year                INTEGER NOT NULL,
	robustness_score    DOUBLE PRECISION NOT NULL,
	robustness_band     TEXT NOT NULL,
	indicators_observed TEXT,
	indicators_imputed  TEXT,
	PRIMARY KEY (iso3, year)
);

CREATE TABLE IF NOT EXISTS run_reports (
	run_id     TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	report     JSONB NOT NULL
);
`

// NewPostgresStore connects a pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool wraps an existing pool. Migration is the
// caller's concern; tests use this with a pgxmock pool.
func NewPostgresStoreWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Commit(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	if s.table != nil {
		if err := s.commitWideTable(ctx, tx); err != nil {
			return err
		}
	}
	if err := s.commitRows(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}
	zap.L().Info("store: postgres outputs committed")
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) commitWideTable(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS country_year`); err != nil {
		return eris.Wrap(err, "postgres: drop country_year")
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE country_year (\n\tiso3 TEXT NOT NULL,\n\tyear INTEGER NOT NULL,\n\tcountry_name TEXT")
	for _, col := range s.table.Columns {
		fmt.Fprintf(&ddl, ",\n\t%q TEXT", col)
	}
	ddl.WriteString(",\n\tPRIMARY KEY (iso3, year)\n)")
	if _, err := tx.Exec(ctx, ddl.String()); err != nil {
		return eris.Wrap(err, "postgres: create country_year")
	}

	cols := append([]string{"iso3", "year", "country_name"}, s.table.Columns...)
	rows := make([][]any, 0, len(s.table.Rows))
	for i := range s.table.Rows {
		r := &s.table.Rows[i]
		row := make([]any, 0, len(cols))
		row = append(row, r.ISO3, r.Year, r.CountryName)
		for _, col := range s.table.Columns {
			if v, ok := r.Values[col]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}

	if _, err := db.CopyInto(ctx, tx, "country_year", cols, rows); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) commitRows(ctx context.Context, tx pgx.Tx) error {
	for _, c := range s.columns {
		if _, err := tx.Exec(ctx, `INSERT INTO column_map (source_prefix, original_column, output_column, source_file)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (output_column) DO UPDATE SET source_prefix = EXCLUDED.source_prefix, original_column = EXCLUDED.original_column, source_file = EXCLUDED.source_file`,
			c.SourcePrefix, c.OriginalColumn, c.OutputColumn, c.SourceFile); err != nil {
			return eris.Wrap(err, "postgres: upsert column_map")
		}
	}

	for i := range s.entities {
		e := &s.entities[i]
		if _, err := tx.Exec(ctx, `INSERT INTO entities (entity_id, name, country_iso3, entity_type, legal_id, parent_id, independent, founded_year, member_count, member_count_year, funding_usd, funding_year, funding_type, source_name, source_url, source_date, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (entity_id) DO UPDATE SET name = EXCLUDED.name, country_iso3 = EXCLUDED.country_iso3, entity_type = EXCLUDED.entity_type, legal_id = EXCLUDED.legal_id, parent_id = EXCLUDED.parent_id, independent = EXCLUDED.independent, founded_year = EXCLUDED.founded_year, member_count = EXCLUDED.member_count, member_count_year = EXCLUDED.member_count_year, funding_usd = EXCLUDED.funding_usd, funding_year = EXCLUDED.funding_year, funding_type = EXCLUDED.funding_type, source_name = EXCLUDED.source_name, source_url = EXCLUDED.source_url, source_date = EXCLUDED.source_date, confidence = EXCLUDED.confidence`,
			e.EntityID, e.Name, e.ISO3, string(e.Type), nullStr(e.LegalID), nullStr(e.ParentID), e.Independent,
			e.FoundedYear, e.MemberCount, e.MemberCountYear, e.FundingUSD, e.FundingYear,
			nullStr(e.FundingType), e.SourceName, e.SourceURL, e.SourceDate, e.Confidence); err != nil {
			return eris.Wrapf(err, "postgres: upsert entity %s", e.EntityID)
		}
	}

	for _, g := range s.gaps {
		if _, err := tx.Exec(ctx, `INSERT INTO coverage_gaps (iso3, entity_type, entity_count, coverage_flag)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (iso3, entity_type) DO UPDATE SET entity_count = EXCLUDED.entity_count, coverage_flag = EXCLUDED.coverage_flag`,
			g.ISO3, string(g.Type), g.EntityCount, g.Flag); err != nil {
			return eris.Wrap(err, "postgres: upsert coverage_gaps")
		}
	}

	if len(s.positions) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM positions`); err != nil {
			return eris.Wrap(err, "postgres: clear positions")
		}
		rows := make([][]any, 0, len(s.positions))
		for i := range s.positions {
			p := &s.positions[i]
			rows = append(rows, []any{
				p.EntityID, p.Year, p.IssueCode, string(p.Stance), p.EvidenceType,
				p.EvidenceURL, p.EvidenceSnippet, p.SourceName, p.SourceDate, p.Confidence,
			})
		}
		cols := []string{"entity_id", "year", "issue_code", "stance", "evidence_type", "evidence_url", "evidence_snippet", "source_name", "source_date", "confidence"}
		if _, err := db.CopyInto(ctx, tx, "positions", cols, rows); err != nil {
			return err
		}
	}

	for _, iss := range s.issues {
		if _, err := tx.Exec(ctx, `INSERT INTO issues (issue_code, issue_label, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (issue_code) DO UPDATE SET issue_label = EXCLUDED.issue_label, description = EXCLUDED.description`,
			iss.Code, iss.Label, iss.Description); err != nil {
			return eris.Wrap(err, "postgres: upsert issues")
		}
	}

	if s.thresholds != nil {
		for _, name := range s.thresholds.IndicatorNames() {
			th := s.thresholds.Indicators[name]
			bps, err := json.Marshal(th.Breakpoints)
			if err != nil {
				return eris.Wrap(err, "postgres: marshal breakpoints")
			}
			if _, err := tx.Exec(ctx, `INSERT INTO thresholds (indicator, breakpoints, observations, insufficient)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (indicator) DO UPDATE SET breakpoints = EXCLUDED.breakpoints, observations = EXCLUDED.observations, insufficient = EXCLUDED.insufficient`,
				name, bps, th.Observations, th.Insufficient); err != nil {
				return eris.Wrapf(err, "postgres: upsert thresholds %s", name)
			}
		}
	}

	for i := range s.scores {
		sc := &s.scores[i]
		if _, err := tx.Exec(ctx, `INSERT INTO scores (iso3, year, robustness_score, robustness_band, indicators_observed, indicators_imputed)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (iso3, year) DO UPDATE SET robustness_score = EXCLUDED.robustness_score, robustness_band = EXCLUDED.robustness_band, indicators_observed = EXCLUDED.indicators_observed, indicators_imputed = EXCLUDED.indicators_imputed`,
			sc.ISO3, sc.Year, sc.Score, sc.Band,
			strings.Join(sc.Observed, "|"), strings.Join(sc.Imputed, "|")); err != nil {
			return eris.Wrapf(err, "postgres: upsert score %s/%d", sc.ISO3, sc.Year)
		}
	}

	if s.report != nil {
		blob, err := json.Marshal(s.report)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal run report")
		}
		if _, err := tx.Exec(ctx, `INSERT INTO run_reports (run_id, started_at, report) VALUES ($1, $2, $3)`,
			s.report.RunID, s.report.StartedAt, blob); err != nil {
			return eris.Wrap(err, "postgres: insert run report")
		}
	}

	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
