// Package resolve maps raw country tokens and sub-state records to canonical
// identities using an ordered list of match strategies.
package resolve

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// Resolver resolves raw country tokens against a canonical membership list.
// Strategies run in fixed priority order with early return: exact ISO3 code,
// curated override, exact normalized name, fuzzy name. Resolution is
// idempotent: the same token always yields the same identity.
type Resolver struct {
	byISO3    map[string]model.CountryIdentity
	byName    map[string]string // normalized name -> iso3
	names     []string          // sorted normalized names, for deterministic fuzzy scans
	overrides map[string]string // normalized token -> iso3
	threshold float64

	mu         sync.Mutex
	fuzzy      []model.MatchAudit
	unresolved []model.MatchAudit
}

// NewResolver builds a Resolver from the membership list, a curated override
// table (normalized token -> ISO3), and the fuzzy similarity threshold.
func NewResolver(members []model.CountryIdentity, overrides map[string]string, threshold float64) *Resolver {
	r := &Resolver{
		byISO3:    make(map[string]model.CountryIdentity, len(members)),
		byName:    make(map[string]string),
		overrides: make(map[string]string, len(overrides)),
		threshold: threshold,
	}

	for _, m := range members {
		iso3 := strings.ToUpper(strings.TrimSpace(m.ISO3))
		if iso3 == "" {
			continue
		}
		m.ISO3 = iso3
		if _, ok := r.byISO3[iso3]; ok {
			continue // one canonical identity per code
		}
		r.byISO3[iso3] = m

		for _, name := range append([]string{m.Name, m.Official}, m.AltNames...) {
			key := NormalizeCountryName(name)
			if key == "" {
				continue
			}
			if _, taken := r.byName[key]; !taken {
				r.byName[key] = iso3
			}
		}
	}

	for token, iso3 := range overrides {
		key := NormalizeCountryName(token)
		if key != "" {
			r.overrides[key] = strings.ToUpper(strings.TrimSpace(iso3))
		}
	}

	r.names = make([]string, 0, len(r.byName))
	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r
}

// Size returns the number of canonical identities.
func (r *Resolver) Size() int {
	return len(r.byISO3)
}

// Identity returns the canonical identity for an ISO3 code.
func (r *Resolver) Identity(iso3 string) (model.CountryIdentity, bool) {
	id, ok := r.byISO3[strings.ToUpper(strings.TrimSpace(iso3))]
	return id, ok
}

// ISO3List returns all canonical codes in sorted order.
func (r *Resolver) ISO3List() []string {
	codes := make([]string, 0, len(r.byISO3))
	for iso3 := range r.byISO3 {
		codes = append(codes, iso3)
	}
	sort.Strings(codes)
	return codes
}

// MemberISO3List returns the sorted codes of in-scope members only.
// Non-members stay resolvable so their records can be audited, but they
// get no output rows.
func (r *Resolver) MemberISO3List() []string {
	codes := make([]string, 0, len(r.byISO3))
	for iso3, id := range r.byISO3 {
		if id.Member {
			codes = append(codes, iso3)
		}
	}
	sort.Strings(codes)
	return codes
}

// Country resolves a raw token (ISO3 code or free-text name) to a canonical
// identity. Unresolved tokens are retained in the audit list with the
// original token; no default country is ever substituted.
func (r *Resolver) Country(token, source string) (model.CountryIdentity, model.MatchMethod, bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		r.recordUnresolved(token, source)
		return model.CountryIdentity{}, model.MatchUnresolved, false
	}

	// Exact 3-letter code match has absolute priority.
	if len(trimmed) == 3 {
		if id, ok := r.byISO3[strings.ToUpper(trimmed)]; ok {
			return id, model.MatchExactCode, true
		}
	}

	key := NormalizeCountryName(trimmed)

	// Curated overrides take precedence over all automatic name steps.
	if iso3, ok := r.overrides[key]; ok {
		if id, ok := r.byISO3[iso3]; ok {
			return id, model.MatchOverride, true
		}
	}

	if iso3, ok := r.byName[key]; ok {
		return r.byISO3[iso3], model.MatchExactName, true
	}

	// Fuzzy match, accepted only above the configured threshold.
	bestName, bestSim := "", 0.0
	for _, name := range r.names {
		if sim := Similarity(key, name); sim > bestSim {
			bestName, bestSim = name, sim
		}
	}
	if bestSim >= r.threshold {
		iso3 := r.byName[bestName]
		r.recordFuzzy(token, iso3, bestSim, source)
		return r.byISO3[iso3], model.MatchFuzzyName, true
	}

	r.recordUnresolved(token, source)
	return model.CountryIdentity{}, model.MatchUnresolved, false
}

func (r *Resolver) recordFuzzy(token, iso3 string, sim float64, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fuzzy = append(r.fuzzy, model.MatchAudit{
		Token:      token,
		ISO3:       iso3,
		Method:     model.MatchFuzzyName,
		Similarity: sim,
		Source:     source,
	})
	zap.L().Debug("resolve: fuzzy country match",
		zap.String("token", token),
		zap.String("iso3", iso3),
		zap.Float64("similarity", sim),
		zap.String("source", source),
	)
}

func (r *Resolver) recordUnresolved(token, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, model.MatchAudit{
		Token:  token,
		Method: model.MatchUnresolved,
		Source: source,
	})
}

// FuzzyAudits returns a copy of the fuzzy-match audit list.
func (r *Resolver) FuzzyAudits() []model.MatchAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MatchAudit, len(r.fuzzy))
	copy(out, r.fuzzy)
	return out
}

// UnresolvedAudits returns a copy of the unresolved audit list.
func (r *Resolver) UnresolvedAudits() []model.MatchAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MatchAudit, len(r.unresolved))
	copy(out, r.unresolved)
	return out
}
