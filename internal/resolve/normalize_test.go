package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountryName_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeCountryName(""))
	assert.Equal(t, "", NormalizeCountryName("   "))
}

func TestNormalizeCountryName_CaseFold(t *testing.T) {
	assert.Equal(t, "germany", NormalizeCountryName("GERMANY"))
	assert.Equal(t, "germany", NormalizeCountryName("Germany"))
}

func TestNormalizeCountryName_Diacritics(t *testing.T) {
	assert.Equal(t, "cote divoire", NormalizeCountryName("Côte d'Ivoire"))
	assert.Equal(t, "turkiye", NormalizeCountryName("Türkiye"))
	assert.Equal(t, "sao tome and principe", NormalizeCountryName("São Tomé & Príncipe"))
}

func TestNormalizeCountryName_Parentheticals(t *testing.T) {
	assert.Equal(t, "venezuela", NormalizeCountryName("Venezuela (Bolivarian Republic of)"))
	assert.Equal(t, "iran", NormalizeCountryName("Iran (Islamic Republic of)"))
}

func TestNormalizeCountryName_LeadingThe(t *testing.T) {
	assert.Equal(t, "gambia", NormalizeCountryName("The Gambia"))
	assert.Equal(t, "netherlands", NormalizeCountryName("the Netherlands"))
}

func TestNormalizeCountryName_Whitespace(t *testing.T) {
	assert.Equal(t, "united states", NormalizeCountryName("  United   States  "))
}

func TestNormalizeEntityName_LegalSuffix(t *testing.T) {
	assert.Equal(t, "acme holdings", NormalizeEntityName("Acme Holdings LLC"))
	assert.Equal(t, "acme holdings", NormalizeEntityName("Acme Holdings Ltd"))
	assert.Equal(t, "acme holdings", NormalizeEntityName("ACME HOLDINGS GmbH"))
}

func TestNormalizeEntityName_NoSuffix(t *testing.T) {
	assert.Equal(t, "national teachers union", NormalizeEntityName("National Teachers' Union"))
}
