// Package model defines the record shapes shared across the fusion pipeline.
package model

// CountryIdentity is the canonical identity a raw country token resolves to.
// ISO3 is the identity key; exactly one identity exists per code.
type CountryIdentity struct {
	ISO3     string   `json:"iso3" csv:"iso3"`
	Name     string   `json:"name,omitempty" csv:"name"`
	Official string   `json:"official,omitempty" csv:"-"`
	AltNames []string `json:"alt_names,omitempty" csv:"-"`
	Member   bool     `json:"member" csv:"member"`
}

// MatchMethod records which resolution strategy produced a country match.
type MatchMethod string

const (
	MatchExactCode  MatchMethod = "exact_code"
	MatchOverride   MatchMethod = "override"
	MatchExactName  MatchMethod = "exact_name"
	MatchFuzzyName  MatchMethod = "fuzzy_name"
	MatchUnresolved MatchMethod = "unresolved"
)

// MatchAudit is one entry in the per-run resolution audit trail. Every fuzzy
// and unresolved outcome is recorded here, never silently dropped.
type MatchAudit struct {
	Token      string      `json:"token" csv:"token"`
	ISO3       string      `json:"iso3,omitempty" csv:"iso3"`
	Method     MatchMethod `json:"method" csv:"method"`
	Similarity float64     `json:"similarity,omitempty" csv:"similarity"`
	Source     string      `json:"source,omitempty" csv:"source"`
}
