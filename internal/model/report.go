package model

import (
	"errors"
	"sort"
	"time"
)

// Structural errors abort the run atomically; per-record problems are
// accumulated into the RunReport instead.
var (
	ErrMissingRequiredSource = errors.New("missing required source")
	ErrEmptyYearRange        = errors.New("empty year range")
	ErrNoResolvableCountries = errors.New("zero resolvable countries")
	ErrInsufficientData      = errors.New("insufficient calibration data")
	ErrParentCycle           = errors.New("entity parent cycle")
)

// RunReport accumulates per-record problems and run metadata. A completed
// run always emits either a full output set plus this report, or no output
// plus a fatal error.
type RunReport struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at,omitempty"`
	SourceRows      map[string]int `json:"source_rows,omitempty"`
	AbsentSources   []string       `json:"absent_sources,omitempty"`
	Unresolved      []MatchAudit   `json:"unresolved,omitempty"`
	FuzzyMatches    []MatchAudit   `json:"fuzzy_matches,omitempty"`
	InvalidEvidence int            `json:"invalid_evidence,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Fatal           string         `json:"fatal,omitempty"`
}

// NewRunReport creates a report stamped with the given run id.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:      runID,
		StartedAt:  time.Now().UTC(),
		SourceRows: make(map[string]int),
	}
}

// Warn appends a warning message.
func (r *RunReport) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Abort stamps the completion time and records the fatal error that
// stopped the run before any output was published.
func (r *RunReport) Abort(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Fatal = err.Error()
	}
}

// Finish stamps the completion time and sorts audit lists for deterministic
// output.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now().UTC()
	sortAudits(r.Unresolved)
	sortAudits(r.FuzzyMatches)
	sort.Strings(r.AbsentSources)
}

func sortAudits(audits []MatchAudit) {
	sort.Slice(audits, func(i, j int) bool {
		if audits[i].Source != audits[j].Source {
			return audits[i].Source < audits[j].Source
		}
		return audits[i].Token < audits[j].Token
	})
}
