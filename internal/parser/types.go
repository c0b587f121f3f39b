package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EffectSlots is the fixed number of effect positions per catalog entry.
const EffectSlots = 4

// SlotNames are the JSON keys of the effect slots in combined output.
var SlotNames = [EffectSlots]string{"first", "second", "third", "fourth"}

// Weight is a float that always encodes with a fractional part ("1.0", not "1").
type Weight float64

func (w Weight) MarshalJSON() ([]byte, error) {
	f := float64(w)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("weight %v is not a finite number", f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// CatalogEntry is one durable row describing an ingredient or item.
type CatalogEntry struct {
	Name   string `json:"name"`
	Weight Weight `json:"weight"`
	Value  int    `json:"value"`
	ID     string `json:"ID"`
}

// EffectEntry associates a catalog entry name with one effect slot.
// A nil Effect means the slot is empty.
type EffectEntry struct {
	Name   string  `json:"name"`
	Effect *string `json:"effect"`
}

// Record is the parsed form of one raw record chunk.
type Record struct {
	// Chunk is the 0-based index of the chunk in the source file.
	Chunk int
	// Entry holds the catalog fields.
	Entry CatalogEntry
	// Effects always has exactly EffectSlots values; nil marks an empty slot.
	Effects [EffectSlots]*string
}

// EffectEntries expands the record into one EffectEntry per slot.
func (r Record) EffectEntries() []EffectEntry {
	out := make([]EffectEntry, 0, EffectSlots)
	for _, e := range r.Effects {
		out = append(out, EffectEntry{Name: r.Entry.Name, Effect: e})
	}
	return out
}

// ParseResult holds parsing output for a single file.
type ParseResult struct {
	// FilePath is the parsed file, empty when lines were parsed directly.
	FilePath string
	// Variant is the name of the variant used.
	Variant string
	// Records holds one record per complete chunk, in source order.
	Records []Record
	// LineCount is the number of lines read.
	LineCount int
	// Dropped is the number of trailing lines that did not form a full chunk.
	Dropped int
}

// Catalog returns the catalog entries of all records.
func (r *ParseResult) Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, rec.Entry)
	}
	return out
}

// Effects returns the effect entries of all records, four per record.
func (r *ParseResult) Effects() []EffectEntry {
	out := make([]EffectEntry, 0, len(r.Records)*EffectSlots)
	for _, rec := range r.Records {
		out = append(out, rec.EffectEntries()...)
	}
	return out
}
