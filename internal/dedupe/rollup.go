// Package dedupe resolves sub-entity hierarchies and applies the relevance
// filter that scopes the canonical entity set.
package dedupe

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// RollUp folds non-independent sub-entities into their parents: the
// parent's null scalars are filled from the child and the child leaves
// the canonical set. The returned map points every absorbed entity id at
// its surviving ancestor so positions can follow. Independently governed
// children keep their own record. A cycle in the parent chain aborts the
// run.
func RollUp(entities []model.Entity, report *model.RunReport) ([]model.Entity, map[string]string, error) {
	byID := make(map[string]*model.Entity, len(entities))
	for i := range entities {
		byID[entities[i].EntityID] = &entities[i]
	}

	if cycle := findCycle(byID); cycle != "" {
		return nil, nil, eris.Wrapf(model.ErrParentCycle, "dedupe: entity %s", cycle)
	}

	// Deepest children first, so values propagate up chains; id order
	// breaks depth ties deterministically.
	order := make([]string, 0, len(byID))
	for id := range byID {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := chainDepth(byID, order[i]), chainDepth(byID, order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	absorbed := map[string]string{}
	for _, id := range order {
		child := byID[id]
		if child.Independent || child.ParentID == "" {
			continue
		}
		parent, ok := byID[child.ParentID]
		if !ok {
			report.Warn("unknown parent_id " + child.ParentID + " on entity " + child.EntityID)
			continue
		}
		fillParent(parent, child)
		absorbed[id] = parent.EntityID
	}

	// Point each absorbed id at its nearest surviving ancestor.
	for id, target := range absorbed {
		for {
			next, ok := absorbed[target]
			if !ok {
				break
			}
			target = next
		}
		absorbed[id] = target
	}

	kept := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if _, gone := absorbed[e.EntityID]; gone {
			continue
		}
		kept = append(kept, e)
	}
	if len(absorbed) > 0 {
		zap.L().Info("dedupe: rolled sub-entities into parents", zap.Int("absorbed", len(absorbed)))
	}

	return kept, absorbed, nil
}

func chainDepth(byID map[string]*model.Entity, id string) int {
	d := 0
	for {
		e, ok := byID[id]
		if !ok || e.ParentID == "" {
			return d
		}
		d++
		id = e.ParentID
	}
}

func fillParent(parent, child *model.Entity) {
	if parent.MemberCount == nil && child.MemberCount != nil {
		parent.MemberCount = child.MemberCount
		parent.MemberCountYear = child.MemberCountYear
	}
	if parent.FundingUSD == nil && child.FundingUSD != nil {
		parent.FundingUSD = child.FundingUSD
		parent.FundingYear = child.FundingYear
		if parent.FundingType == "" {
			parent.FundingType = child.FundingType
		}
	}
	if parent.FoundedYear == nil && child.FoundedYear != nil {
		parent.FoundedYear = child.FoundedYear
	}
}

// findCycle walks every parent chain and returns an entity id on a cycle,
// or "" when the hierarchy is a forest.
func findCycle(byID map[string]*model.Entity) string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, start := range ids {
		seen := map[string]bool{}
		for id := start; id != ""; {
			if seen[id] {
				return id
			}
			seen[id] = true
			e, ok := byID[id]
			if !ok {
				break
			}
			id = e.ParentID
		}
	}
	return ""
}
