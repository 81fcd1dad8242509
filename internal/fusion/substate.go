package fusion

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
	"github.com/galad-data/govdata-cli/internal/resolve"
)

// MergeEntities collapses raw sub-state records into one canonical entity
// per organization. Records sharing a legal identifier merge regardless of
// name spelling; records sharing the composite (country, type, normalized
// name) key merge too, and adopt the legal id when any record in the group
// carries one. The returned remap translates composite keys to final
// entity ids so downstream position rows stay attached.
func MergeEntities(records []model.Entity) ([]model.Entity, map[string]string) {
	// First pass: find the legal id each composite group should adopt.
	// The lexically smallest wins so reruns are deterministic.
	adopted := make(map[string]string)
	for i := range records {
		legal := resolve.LegalEntityKey(records[i].LegalID)
		if legal == "" {
			continue
		}
		comp := resolve.CompositeEntityKey(&records[i])
		if cur, ok := adopted[comp]; !ok || legal < cur {
			adopted[comp] = legal
		}
	}

	// Second pass: group by final id.
	groups := make(map[string][]model.Entity)
	remap := make(map[string]string)
	for i := range records {
		comp := resolve.CompositeEntityKey(&records[i])
		id := resolve.LegalEntityKey(records[i].LegalID)
		if id == "" {
			if legal, ok := adopted[comp]; ok {
				id = legal
			} else {
				id = comp
			}
		}
		remap[comp] = id
		groups[id] = append(groups[id], records[i])
	}

	merged := make([]model.Entity, 0, len(groups))
	for id, group := range groups {
		e := mergeGroup(group)
		e.EntityID = id
		if len(group) > 1 {
			zap.L().Debug("fusion: merged duplicate entity records",
				zap.String("entity_id", id),
				zap.Int("records", len(group)),
			)
		}
		merged = append(merged, e)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].EntityID < merged[j].EntityID
	})
	return merged, remap
}

// mergeGroup collapses one duplicate group. Records are ranked by
// confidence, then source date, then source name, and the top record wins
// each field; lower-ranked records only fill fields the winner left empty.
func mergeGroup(group []model.Entity) model.Entity {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := &group[i], &group[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.SourceDate.Equal(b.SourceDate) {
			return a.SourceDate.After(b.SourceDate)
		}
		return a.SourceName < b.SourceName
	})

	e := group[0]
	for _, other := range group[1:] {
		if e.LegalID == "" {
			e.LegalID = other.LegalID
		}
		if e.ParentID == "" {
			e.ParentID = other.ParentID
		}
		if e.FoundedYear == nil {
			e.FoundedYear = other.FoundedYear
		}
		if e.MemberCount == nil {
			e.MemberCount = other.MemberCount
			e.MemberCountYear = other.MemberCountYear
		}
		if e.FundingUSD == nil {
			e.FundingUSD = other.FundingUSD
			e.FundingYear = other.FundingYear
			if e.FundingType == "" {
				e.FundingType = other.FundingType
			}
		}
		if e.SourceURL == "" {
			e.SourceURL = other.SourceURL
		}
	}
	return e
}

// ValidatePositions drops positions without evidence or without a known
// entity, remapping composite entity ids through the merge table first.
// Surviving rows are never deduplicated: each citation stays a separate
// evidence row, sorted for deterministic output.
func ValidatePositions(positions []model.Position, entities []model.Entity, remap map[string]string, report *model.RunReport) []model.Position {
	known := make(map[string]bool, len(entities))
	for i := range entities {
		known[entities[i].EntityID] = true
	}

	kept := make([]model.Position, 0, len(positions))
	orphans := 0
	for _, p := range positions {
		if id, ok := remap[p.EntityID]; ok {
			p.EntityID = id
		}
		if !p.HasEvidence() {
			report.InvalidEvidence++
			continue
		}
		if !model.ValidStance(p.Stance) {
			p.Stance = model.StanceUnknown
		}
		if !known[p.EntityID] {
			orphans++
			continue
		}
		kept = append(kept, p)
	}

	if report.InvalidEvidence > 0 {
		report.Warn(fmt.Sprintf("dropped %d positions without evidence", report.InvalidEvidence))
	}
	if orphans > 0 {
		report.Warn(fmt.Sprintf("dropped %d positions referencing unknown entities", orphans))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := &kept[i], &kept[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.IssueCode != b.IssueCode {
			return a.IssueCode < b.IssueCode
		}
		return a.SourceName < b.SourceName
	})
	return kept
}
