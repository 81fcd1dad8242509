// Package registry assigns deterministic, collision-free output column names
// per source and records the origin-to-output mapping.
package registry

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/galad-data/govdata-cli/internal/model"
)

var (
	nonASCIIRe = regexp.MustCompile(`[^\x00-\x7f]`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9_]+`)
	multiUndRe = regexp.MustCompile(`_+`)
)

// SafeColumn normalizes a raw column name: lower-case, strip non-ASCII,
// replace non-alphanumeric runs with a single underscore.
func SafeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonASCIIRe.ReplaceAllString(name, "")
	name = nonAlnumRe.ReplaceAllString(name, "_")
	name = multiUndRe.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

type inputKey struct {
	prefix   string
	original string
}

// Registry maps (source prefix, original column) to namespaced output
// columns. Registration is idempotent: the same input always yields the
// same output and exactly one provenance row. Two different original
// columns of the same source that normalize identically get a numeric
// suffix. A single writer lock guards against duplicate-suffix races when
// fusion runs per-country in parallel.
type Registry struct {
	mu         sync.Mutex
	byInput    map[inputKey]string
	taken      map[string]bool
	provenance []model.ColumnProvenance
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byInput: make(map[inputKey]string),
		taken:   make(map[string]bool),
	}
}

// Register returns the output column name for (prefix, original), creating
// it on first use and recording provenance against sourceFile.
func (r *Registry) Register(prefix, original, sourceFile string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := inputKey{prefix: prefix, original: original}
	if out, ok := r.byInput[key]; ok {
		return out
	}

	out := prefix + "__" + SafeColumn(original)
	if r.taken[out] {
		i := 2
		for r.taken[out+"_"+strconv.Itoa(i)] {
			i++
		}
		out = out + "_" + strconv.Itoa(i)
	}

	r.byInput[key] = out
	r.taken[out] = true
	r.provenance = append(r.provenance, model.ColumnProvenance{
		SourcePrefix:   prefix,
		OriginalColumn: original,
		OutputColumn:   out,
		SourceFile:     sourceFile,
	})

	return out
}

// Provenance returns a copy of all provenance rows, sorted by output column.
func (r *Registry) Provenance() []model.ColumnProvenance {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.ColumnProvenance, len(r.provenance))
	copy(out, r.provenance)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OutputColumn < out[j].OutputColumn
	})
	return out
}
