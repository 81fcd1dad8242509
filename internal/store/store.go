// Package store persists run outputs behind one interface with CSV,
// SQLite, and Postgres backends. Writes buffer in memory and Commit
// publishes the whole set atomically, so a failed run leaves no partial
// output behind.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/galad-data/govdata-cli/internal/model"
)

// Store receives the complete output set of one run. Only the artifacts a
// subcommand produces need to be written; Commit publishes whatever was
// buffered.
type Store interface {
	WriteCountryYear(ctx context.Context, table *model.CountryYearTable) error
	WriteColumnMap(ctx context.Context, columns []model.ColumnProvenance) error
	WriteEntities(ctx context.Context, entities []model.Entity) error
	WriteCoverageGaps(ctx context.Context, gaps []model.CoverageGap) error
	WritePositions(ctx context.Context, positions []model.Position) error
	WriteIssues(ctx context.Context, issues []model.Issue) error
	WriteThresholds(ctx context.Context, set *model.ThresholdSet) error
	WriteScores(ctx context.Context, scores []model.Score) error
	WriteRunReport(ctx context.Context, report *model.RunReport) error

	Commit(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string // csv, sqlite, postgres
	OutputDir   string
	SQLitePath  string
	DatabaseURL string
}

// Open creates the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "csv":
		return NewCSVStore(opts.OutputDir), nil
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "postgres":
		return NewPostgresStore(ctx, opts.DatabaseURL)
	}
	return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
}

// buffer holds everything written before Commit. Backends embed it and
// consume the fields in their Commit implementation.
type buffer struct {
	table      *model.CountryYearTable
	columns    []model.ColumnProvenance
	entities   []model.Entity
	gaps       []model.CoverageGap
	positions  []model.Position
	issues     []model.Issue
	thresholds *model.ThresholdSet
	scores     []model.Score
	report     *model.RunReport
}

func (b *buffer) WriteCountryYear(_ context.Context, table *model.CountryYearTable) error {
	b.table = table
	return nil
}

func (b *buffer) WriteColumnMap(_ context.Context, columns []model.ColumnProvenance) error {
	b.columns = columns
	return nil
}

func (b *buffer) WriteEntities(_ context.Context, entities []model.Entity) error {
	b.entities = entities
	return nil
}

func (b *buffer) WriteCoverageGaps(_ context.Context, gaps []model.CoverageGap) error {
	b.gaps = gaps
	return nil
}

func (b *buffer) WritePositions(_ context.Context, positions []model.Position) error {
	b.positions = positions
	return nil
}

func (b *buffer) WriteIssues(_ context.Context, issues []model.Issue) error {
	b.issues = issues
	return nil
}

func (b *buffer) WriteThresholds(_ context.Context, set *model.ThresholdSet) error {
	b.thresholds = set
	return nil
}

func (b *buffer) WriteScores(_ context.Context, scores []model.Score) error {
	b.scores = scores
	return nil
}

func (b *buffer) WriteRunReport(_ context.Context, report *model.RunReport) error {
	b.report = report
	return nil
}
