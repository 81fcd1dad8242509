package source

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/galad-data/govdata-cli/internal/model"
)

// entitySeedRow mirrors the sub-state entity seed CSV schema. All fields
// are strings so sparse seeds with blank cells decode cleanly.
type entitySeedRow struct {
	Name            string `csv:"name"`
	CountryISO3     string `csv:"country_iso3"`
	EntityType      string `csv:"entity_type"`
	LegalID         string `csv:"legal_id,omitempty"`
	ParentID        string `csv:"parent_id,omitempty"`
	Independent     string `csv:"independent,omitempty"`
	FoundedYear     string `csv:"founded_year,omitempty"`
	MemberCount     string `csv:"member_count,omitempty"`
	MemberCountYear string `csv:"member_count_year,omitempty"`
	FundingUSD      string `csv:"funding_usd,omitempty"`
	FundingYear     string `csv:"funding_year,omitempty"`
	FundingType     string `csv:"funding_type,omitempty"`
	SourceName      string `csv:"source_name,omitempty"`
	SourceURL       string `csv:"source_url,omitempty"`
	SourceDate      string `csv:"source_date,omitempty"`
	Confidence      string `csv:"confidence,omitempty"`
}

// positionSeedRow mirrors the issue-position seed CSV schema.
type positionSeedRow struct {
	EntityID        string `csv:"entity_id,omitempty"`
	Name            string `csv:"name,omitempty"`
	CountryISO3     string `csv:"country_iso3,omitempty"`
	EntityType      string `csv:"entity_type,omitempty"`
	Year            string `csv:"year"`
	IssueCode       string `csv:"issue_code"`
	Stance          string `csv:"stance"`
	EvidenceType    string `csv:"evidence_type,omitempty"`
	EvidenceURL     string `csv:"evidence_url,omitempty"`
	EvidenceSnippet string `csv:"evidence_snippet,omitempty"`
	SourceName      string `csv:"source_name,omitempty"`
	SourceDate      string `csv:"source_date,omitempty"`
	Confidence      string `csv:"confidence,omitempty"`
}

// ReadEntitySeeds loads sub-state entity records from the given seed files.
// Rows missing a name or country are skipped with a warning count.
func ReadEntitySeeds(ctx context.Context, paths []string) ([]model.Entity, error) {
	var entities []model.Entity
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "seeds: context cancelled")
		}

		rows, err := decodeSeedFile[entitySeedRow](ctx, path)
		if err != nil {
			return nil, err
		}

		skipped := 0
		for _, row := range rows {
			e, ok := seedToEntity(row)
			if !ok {
				skipped++
				continue
			}
			entities = append(entities, e)
		}
		if skipped > 0 {
			zap.L().Warn("seeds: skipped malformed entity rows",
				zap.String("file", path),
				zap.Int("skipped", skipped),
			)
		}
	}
	return entities, nil
}

// ReadPositionSeeds loads issue-position records from the given seed files.
// Evidence validation happens later in fusion; this only shapes the rows.
func ReadPositionSeeds(ctx context.Context, paths []string) ([]model.Position, error) {
	var positions []model.Position
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "seeds: context cancelled")
		}

		rows, err := decodeSeedFile[positionSeedRow](ctx, path)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			year, err := strconv.Atoi(strings.TrimSpace(row.Year))
			if err != nil {
				continue
			}
			positions = append(positions, model.Position{
				EntityID:        row.EntityID,
				Year:            year,
				IssueCode:       row.IssueCode,
				Stance:          model.Stance(strings.ToLower(strings.TrimSpace(row.Stance))),
				EvidenceType:    row.EvidenceType,
				EvidenceURL:     row.EvidenceURL,
				EvidenceSnippet: row.EvidenceSnippet,
				SourceName:      row.SourceName,
				SourceDate:      parseDate(row.SourceDate),
				Confidence:      parseFloatOr(row.Confidence, 0),
			})
		}
	}
	return positions, nil
}

func decodeSeedFile[T any](ctx context.Context, path string) ([]T, error) {
	header, rows, err := ReadCSVTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "seeds: read %s", path)
	}

	// Re-assemble for csvutil's header-driven decoding.
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)

	var out []T
	if err := csvutil.Unmarshal(joinCSV(records), &out); err != nil {
		return nil, eris.Wrapf(err, "seeds: decode %s", path)
	}
	return out, nil
}

// joinCSV re-encodes rows so csvutil can decode them against the header.
func joinCSV(records [][]string) []byte {
	var b strings.Builder
	for _, row := range records {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if strings.ContainsAny(field, ",\"\n") {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(field, `"`, `""`))
				b.WriteByte('"')
			} else {
				b.WriteString(field)
			}
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func seedToEntity(row entitySeedRow) (model.Entity, bool) {
	if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.CountryISO3) == "" {
		return model.Entity{}, false
	}

	typ := model.EntityType(strings.ToLower(strings.TrimSpace(row.EntityType)))
	if typ == "political_party" {
		typ = model.EntityParty
	}
	if !model.ValidEntityType(typ) {
		typ = model.EntityOther
	}

	e := model.Entity{
		Name:        strings.TrimSpace(row.Name),
		ISO3:        strings.ToUpper(strings.TrimSpace(row.CountryISO3)),
		Type:        typ,
		LegalID:     strings.TrimSpace(row.LegalID),
		ParentID:    strings.TrimSpace(row.ParentID),
		Independent: parseBool(row.Independent, true),
		FundingType: strings.TrimSpace(row.FundingType),
		SourceName:  row.SourceName,
		SourceURL:   row.SourceURL,
		SourceDate:  parseDate(row.SourceDate),
		Confidence:  parseFloatOr(row.Confidence, 0.5),
	}
	e.FoundedYear = parseIntPtr(row.FoundedYear)
	e.MemberCount = parseFloatPtr(row.MemberCount)
	e.MemberCountYear = parseIntPtr(row.MemberCountYear)
	e.FundingUSD = parseFloatPtr(row.FundingUSD)
	e.FundingYear = parseIntPtr(row.FundingYear)

	return e, true
}

func parseBool(s string, def bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseFloatOr(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func parseFloatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
