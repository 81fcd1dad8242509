package resolve

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenRe      = regexp.MustCompile(`\(.*?\)`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NormalizeCountryName standardizes a free-text country name for matching:
//  1. Case-fold and trim
//  2. Strip diacritics
//  3. Drop parenthetical qualifiers
//  4. Replace "&" with "and", strip remaining punctuation
//  5. Collapse whitespace and drop a leading "the"
func NormalizeCountryName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	if stripped, _, err := transform.String(deaccent, name); err == nil {
		name = stripped
	}

	name = strings.ReplaceAll(name, "&", "and")
	name = parenRe.ReplaceAllString(name, "")
	name = nonAlnumRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "the ")

	return name
}

// NormalizeEntityName standardizes an organization name for identity
// derivation. Same pipeline as country names plus legal-suffix stripping.
func NormalizeEntityName(name string) string {
	name = NormalizeCountryName(name)
	if name == "" {
		return ""
	}
	for _, suffix := range entitySuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			name = strings.TrimSpace(name)
			break
		}
	}
	return name
}

// entitySuffixes lists legal entity suffixes stripped during normalization.
// Lowercase because NormalizeCountryName already case-folded the input.
var entitySuffixes = []string{
	" llc", " inc", " incorporated",
	" corp", " corporation",
	" ltd", " limited",
	" lp", " llp", " plc", " pllc",
	" co", " sa", " ag", " gmbh", " nv", " spa",
}
