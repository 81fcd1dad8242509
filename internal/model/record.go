package model

import "time"

// SourceFingerprint identifies where and when a raw record was ingested.
type SourceFingerprint struct {
	Name       string    `json:"name"`
	File       string    `json:"file,omitempty"`
	IngestedAt time.Time `json:"ingested_at,omitempty"`
}

// RawRecord is the shape every source adapter hands to the fusion engine:
// one country token, an optional year, and the source-native field values.
type RawRecord struct {
	CountryToken string
	Year         *int
	Fields       map[string]string
	Source       SourceFingerprint
}

// ColumnProvenance maps one retained source column to its output column.
// Rows are 1:1 with columns actually emitted in the country-year table.
type ColumnProvenance struct {
	SourcePrefix   string `json:"source_prefix" csv:"source_prefix"`
	OriginalColumn string `json:"original_column" csv:"original_column"`
	OutputColumn   string `json:"output_column" csv:"output_column"`
	SourceFile     string `json:"source_file" csv:"source_file"`
}
