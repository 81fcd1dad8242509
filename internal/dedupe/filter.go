package dedupe

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/resolve"
)

// FilterOptions sets the relevance thresholds for the canonical set.
// Overrides hold entity ids or normalized names that are kept regardless
// of thresholds.
type FilterOptions struct {
	MinMembers    float64
	MinFundingUSD float64
	Overrides     map[string]bool
}

// Filter splits entities into the canonical set and the excluded
// remainder. An entity is kept when it clears the membership threshold,
// the funding threshold, or appears in the override list. Both slices
// stay sorted by entity id.
func Filter(entities []model.Entity, opts FilterOptions) (kept, excluded []model.Entity) {
	for _, e := range entities {
		if relevant(&e, opts) {
			kept = append(kept, e)
		} else {
			excluded = append(excluded, e)
		}
	}

	zap.L().Info("dedupe: relevance filter applied",
		zap.Int("kept", len(kept)),
		zap.Int("excluded", len(excluded)),
	)
	return kept, excluded
}

func relevant(e *model.Entity, opts FilterOptions) bool {
	if e.MemberCount != nil && *e.MemberCount >= opts.MinMembers {
		return true
	}
	if e.FundingUSD != nil && *e.FundingUSD >= opts.MinFundingUSD {
		return true
	}
	if opts.Overrides[e.EntityID] {
		return true
	}
	return opts.Overrides[resolve.NormalizeEntityName(e.Name)]
}

// CoverageGaps summarizes how many canonical entities each (country,
// entity type) cell holds, flagging empty and thin cells. Output covers
// the full cross product of the given countries and every known entity
// type, sorted by (iso3, type).
func CoverageGaps(entities []model.Entity, countries []string) []model.CoverageGap {
	counts := make(map[string]map[model.EntityType]int)
	for _, iso3 := range countries {
		counts[strings.ToUpper(iso3)] = make(map[model.EntityType]int)
	}
	for i := range entities {
		iso3 := strings.ToUpper(entities[i].ISO3)
		if _, ok := counts[iso3]; !ok {
			counts[iso3] = make(map[model.EntityType]int)
		}
		counts[iso3][entities[i].Type]++
	}

	codes := make([]string, 0, len(counts))
	for iso3 := range counts {
		codes = append(codes, iso3)
	}
	sort.Strings(codes)

	types := []model.EntityType{
		model.EntityParty, model.EntityUnion, model.EntityNGO,
		model.EntityFoundation, model.EntityUniversity, model.EntityCorporation,
		model.EntitySOE, model.EntityMedia, model.EntityFinancial,
		model.EntityReligious, model.EntityProfessional, model.EntityOther,
	}

	var gaps []model.CoverageGap
	for _, iso3 := range codes {
		for _, typ := range types {
			n := counts[iso3][typ]
			gaps = append(gaps, model.CoverageGap{
				ISO3:        iso3,
				Type:        typ,
				EntityCount: n,
				Flag:        coverageFlag(n),
			})
		}
	}
	return gaps
}

func coverageFlag(n int) string {
	switch {
	case n == 0:
		return "missing"
	case n < 3:
		return "sparse"
	default:
		return "ok"
	}
}
