package resolve

import (
	"regexp"
	"strings"

	"github.com/galad-data/govdata-cli/internal/model"
)

var idSafeRe = regexp.MustCompile(`[^a-z0-9]+`)

// EntityKey derives the canonical entity id for a sub-state record. Records
// sharing a legal identifier merge regardless of name or country; without
// one the id is derived from (normalized name, country, entity type), so it
// is stable across rebuilds.
func EntityKey(e *model.Entity) string {
	if legal := LegalEntityKey(e.LegalID); legal != "" {
		return legal
	}
	return CompositeEntityKey(e)
}

// LegalEntityKey derives the id for a legal identifier, or "" when blank.
func LegalEntityKey(legalID string) string {
	legal := strings.ToUpper(strings.TrimSpace(legalID))
	if legal == "" {
		return ""
	}
	return "lei-" + legal
}

// CompositeEntityKey derives the (country, type, normalized name) key,
// ignoring any legal identifier. Records of the same organization where
// only some rows carry the identifier share this key and adopt the legal
// id at merge time.
func CompositeEntityKey(e *model.Entity) string {
	name := idSafe(NormalizeEntityName(e.Name))
	iso3 := strings.ToLower(strings.TrimSpace(e.ISO3))
	return iso3 + "-" + string(e.Type) + "-" + name
}

func idSafe(s string) string {
	s = idSafeRe.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}
