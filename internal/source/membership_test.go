package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const membershipYAML = `countries:
  - iso3: DEU
    name: Germany
    official: Federal Republic of Germany
    member: true
  - iso3: CIV
    name: Côte d'Ivoire
    alt_names: [Ivory Coast]
    member: true
`

func TestLoadMembership(t *testing.T) {
	path := writeFile(t, "members.yaml", membershipYAML)
	members, err := LoadMembership(path)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "DEU", members[0].ISO3)
	assert.Equal(t, "Federal Republic of Germany", members[0].Official)
	assert.True(t, members[0].Member)
	assert.Equal(t, []string{"Ivory Coast"}, members[1].AltNames)
}

func TestLoadMembership_MissingFileFails(t *testing.T) {
	_, err := LoadMembership("/nonexistent/members.yaml")
	assert.Error(t, err)
}

func TestLoadCountryOverrides(t *testing.T) {
	path := writeFile(t, "overrides.yaml", "countries:\n  \"Korea, Rep.\": KOR\n")
	overrides, err := LoadCountryOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Korea, Rep.": "KOR"}, overrides)
}

func TestLoadCountryOverrides_MissingFileEmpty(t *testing.T) {
	overrides, err := LoadCountryOverrides("/nonexistent/overrides.yaml")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadEntityOverrides(t *testing.T) {
	path := writeFile(t, "overrides.yaml", "entities:\n  - lei-LEI123\n  - acme watch\n")
	overrides, err := LoadEntityOverrides(path)
	require.NoError(t, err)
	assert.True(t, overrides["lei-LEI123"])
	assert.True(t, overrides["acme watch"])
	assert.False(t, overrides["other"])
}
