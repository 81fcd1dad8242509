package model

import "time"

// EntityType enumerates the organizational categories a sub-state entity can
// belong to.
type EntityType string

const (
	EntityParty        EntityType = "party"
	EntityUnion        EntityType = "union"
	EntityNGO          EntityType = "ngo"
	EntityFoundation   EntityType = "foundation"
	EntityUniversity   EntityType = "university"
	EntityCorporation  EntityType = "corporation"
	EntitySOE          EntityType = "soe"
	EntityMedia        EntityType = "media"
	EntityFinancial    EntityType = "financial_institution"
	EntityReligious    EntityType = "religious_network"
	EntityProfessional EntityType = "professional_association"
	EntityOther        EntityType = "other"
)

// ValidEntityType reports whether t is a known entity type.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityParty, EntityUnion, EntityNGO, EntityFoundation, EntityUniversity,
		EntityCorporation, EntitySOE, EntityMedia, EntityFinancial,
		EntityReligious, EntityProfessional, EntityOther:
		return true
	}
	return false
}

// Entity is a canonical sub-state organization. EntityID is stable across
// rebuilds: derived from the legal identifier when one exists, otherwise
// from (normalized name, country, type).
type Entity struct {
	EntityID        string     `json:"entity_id" csv:"entity_id"`
	Name            string     `json:"name" csv:"name"`
	ISO3            string     `json:"country_iso3" csv:"country_iso3"`
	Type            EntityType `json:"entity_type" csv:"entity_type"`
	LegalID         string     `json:"legal_id,omitempty" csv:"legal_id"`
	ParentID        string     `json:"parent_id,omitempty" csv:"parent_id"`
	Independent     bool       `json:"independent" csv:"independent"`
	FoundedYear     *int       `json:"founded_year,omitempty" csv:"founded_year"`
	MemberCount     *float64   `json:"member_count,omitempty" csv:"member_count"`
	MemberCountYear *int       `json:"member_count_year,omitempty" csv:"member_count_year"`
	FundingUSD      *float64   `json:"funding_usd,omitempty" csv:"funding_usd"`
	FundingYear     *int       `json:"funding_year,omitempty" csv:"funding_year"`
	FundingType     string     `json:"funding_type,omitempty" csv:"funding_type"`
	SourceName      string     `json:"source_name" csv:"source_name"`
	SourceURL       string     `json:"source_url,omitempty" csv:"source_url"`
	SourceDate      time.Time  `json:"source_date" csv:"source_date"`
	Confidence      float64    `json:"confidence" csv:"confidence"`
}

// Stance is an entity's recorded position on an issue.
type Stance string

const (
	StanceSupport  Stance = "support"
	StanceRestrict Stance = "restrict"
	StanceMixed    Stance = "mixed"
	StanceUnknown  Stance = "unknown"
)

// ValidStance reports whether s is a known stance value.
func ValidStance(s Stance) bool {
	switch s {
	case StanceSupport, StanceRestrict, StanceMixed, StanceUnknown:
		return true
	}
	return false
}

// Position is one evidence-backed issue stance. A position without an
// evidence URL or snippet is invalid and is rejected at fusion time.
// Positions are never deduplicated: multiple citations for the same stance
// are kept as separate evidence rows.
type Position struct {
	EntityID        string    `json:"entity_id" csv:"entity_id"`
	Year            int       `json:"year" csv:"year"`
	IssueCode       string    `json:"issue_code" csv:"issue_code"`
	Stance          Stance    `json:"stance" csv:"stance"`
	EvidenceType    string    `json:"evidence_type,omitempty" csv:"evidence_type"`
	EvidenceURL     string    `json:"evidence_url,omitempty" csv:"evidence_url"`
	EvidenceSnippet string    `json:"evidence_snippet,omitempty" csv:"evidence_snippet"`
	SourceName      string    `json:"source_name" csv:"source_name"`
	SourceDate      time.Time `json:"source_date" csv:"source_date"`
	Confidence      float64   `json:"confidence" csv:"confidence"`
}

// HasEvidence reports whether the position carries at least one citation.
func (p *Position) HasEvidence() bool {
	return p.EvidenceURL != "" || p.EvidenceSnippet != ""
}

// Issue is one entry of the issue catalog.
type Issue struct {
	Code        string `json:"issue_code" csv:"issue_code"`
	Label       string `json:"issue_label" csv:"issue_label"`
	Description string `json:"description" csv:"description"`
}

// DefaultIssueCatalog returns the issue codes positions are recorded
// against.
func DefaultIssueCatalog() []Issue {
	return []Issue{
		{Code: "expression", Label: "Expression & media freedom", Description: "Policies or actions affecting speech, media, and access to information."},
		{Code: "academic_freedom", Label: "Academic/scientific freedom", Description: "Policies or actions affecting research, teaching, and scientific practice."},
		{Code: "labor_rights", Label: "Labor rights & forced labor safeguards", Description: "Policies or actions affecting labor protections, forced labor, and unions."},
		{Code: "participation", Label: "Participatory representation", Description: "Policies or actions affecting elections, party competition, and civic participation."},
		{Code: "due_process", Label: "Due process & detention", Description: "Policies or actions affecting legal process, detention, and judicial protections."},
		{Code: "fiscal_transparency", Label: "Fiscal transparency & accountability", Description: "Policies or actions affecting budget openness, corruption, and accountability."},
	}
}

// CoverageGap summarizes entity coverage for one (country, entity type)
// cell of the scoped output.
type CoverageGap struct {
	ISO3        string     `json:"iso3" csv:"iso3"`
	Type        EntityType `json:"entity_type" csv:"entity_type"`
	EntityCount int        `json:"entity_count" csv:"entity_count"`
	Flag        string     `json:"coverage_flag" csv:"coverage_flag"`
}
