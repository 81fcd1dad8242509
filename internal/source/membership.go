package source

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/galad-data/govdata-cli/internal/model"
)

type membershipFile struct {
	Countries []membershipEntry `yaml:"countries"`
}

type membershipEntry struct {
	ISO3     string   `yaml:"iso3"`
	Name     string   `yaml:"name"`
	Official string   `yaml:"official"`
	AltNames []string `yaml:"alt_names"`
	Member   *bool    `yaml:"member"`
}

// LoadMembership reads the canonical country list. Entries default to
// member unless the file says otherwise.
func LoadMembership(path string) ([]model.CountryIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "membership: read file")
	}

	var file membershipFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "membership: parse yaml")
	}

	members := make([]model.CountryIdentity, 0, len(file.Countries))
	for _, e := range file.Countries {
		if e.ISO3 == "" {
			continue
		}
		member := true
		if e.Member != nil {
			member = *e.Member
		}
		members = append(members, model.CountryIdentity{
			ISO3:     e.ISO3,
			Name:     e.Name,
			Official: e.Official,
			AltNames: e.AltNames,
			Member:   member,
		})
	}

	if len(members) == 0 {
		return nil, eris.Errorf("membership: no countries in %s", path)
	}
	return members, nil
}

type overridesFile struct {
	Countries map[string]string `yaml:"countries"` // raw token -> iso3
	Entities  []string          `yaml:"entities"`  // entity ids or normalized names
}

// LoadCountryOverrides reads the manually-curated token -> ISO3 table. A
// missing file is an empty table, not an error.
func LoadCountryOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrap(err, "overrides: read file")
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "overrides: parse yaml")
	}
	if file.Countries == nil {
		file.Countries = map[string]string{}
	}
	return file.Countries, nil
}

// LoadEntityOverrides reads the "widely recognized" entity override list.
// Entries may be entity ids or normalized entity names.
func LoadEntityOverrides(path string) (map[string]bool, error) {
	if path == "" {
		return map[string]bool{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, eris.Wrap(err, "overrides: read file")
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "overrides: parse yaml")
	}

	out := make(map[string]bool, len(file.Entities))
	for _, e := range file.Entities {
		out[e] = true
	}
	return out, nil
}
