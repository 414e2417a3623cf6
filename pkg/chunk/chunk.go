// Package chunk splits SQL scripts into bounded, structurally coherent
// segments suitable for embedding and downstream lineage extraction.
//
// The chunker is a pure function of (content, source path, dialect, token
// budget). It first attempts a structural parse of the script; when that
// fails or produces an untrustworthy result it falls back to keyword-pattern
// delimitation. Both paths feed the same assembler, which produces the final
// ordered chunk list.
package chunk

import (
	"encoding/json"
	"fmt"
)

// ChunkType classifies the database object a chunk contains.
type ChunkType int

const (
	// TypeUnknown marks content that could not be classified.
	TypeUnknown ChunkType = iota
	// TypeTable marks a CREATE TABLE definition.
	TypeTable
	// TypeView marks a CREATE VIEW definition.
	TypeView
	// TypeFunction marks a CREATE FUNCTION definition.
	TypeFunction
	// TypeProcedure marks a CREATE PROCEDURE definition.
	TypeProcedure
	// TypeTrigger marks a CREATE TRIGGER definition.
	TypeTrigger
	// TypeIndex marks a CREATE INDEX definition.
	TypeIndex
	// TypeSchema marks a CREATE SCHEMA definition.
	TypeSchema
	// TypeMixed marks a run of loose statements (DML, queries, grants).
	TypeMixed
)

var chunkTypeNames = map[ChunkType]string{
	TypeUnknown:   "unknown",
	TypeTable:     "table",
	TypeView:      "view",
	TypeFunction:  "function",
	TypeProcedure: "procedure",
	TypeTrigger:   "trigger",
	TypeIndex:     "index",
	TypeSchema:    "schema",
	TypeMixed:     "mixed",
}

// String returns the lowercase tag for the chunk type.
func (t ChunkType) String() string {
	if name, ok := chunkTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the type as its string tag.
func (t ChunkType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a string tag back into a ChunkType.
func (t *ChunkType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for typ, name := range chunkTypeNames {
		if name == s {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown chunk type %q", s)
}

// Range is a half-open byte span [Start, End) into the original content.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Chunk is one bounded, classified segment of a source script. Chunks are
// immutable value records; they carry no identity beyond their position in
// the returned sequence.
type Chunk struct {
	// Content is the exact text span from the original script.
	Content string `json:"content"`
	// Type is the classified object kind for the span.
	Type ChunkType `json:"chunk_type"`
	// TokenCount is the deterministic token estimate for Content.
	TokenCount int `json:"token_count"`
	// Range locates Content inside the original file.
	Range Range `json:"byte_range"`
	// TablesReferenced lists identifiers found after table-reference
	// keywords. Lightweight scanning only, not semantic resolution.
	TablesReferenced []string `json:"tables_referenced,omitempty"`
	// SourceFile is the path the content was read from.
	SourceFile string `json:"source_file"`
	// Dialect is the concrete dialect the chunk was produced under.
	Dialect Dialect `json:"dialect"`
}
