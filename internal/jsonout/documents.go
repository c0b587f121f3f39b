// Package jsonout builds the per-variant JSON documents and writes them to disk.
package jsonout

import (
	"fmt"

	"tamriel-catalog/internal/ordered"
	"tamriel-catalog/internal/parser"
)

// Role names the content of a document.
type Role string

const (
	RoleCatalog  Role = "catalog"
	RoleEffects  Role = "effects"
	RoleCombined Role = "combined"
)

// Document is one JSON value destined for one output file.
type Document struct {
	Role  Role
	Value any
}

// FlatRecord is a combined entry with the effect slots inline.
type FlatRecord struct {
	Name   string        `json:"name"`
	Weight parser.Weight `json:"weight"`
	Value  int           `json:"value"`
	First  *string       `json:"first"`
	Second *string       `json:"second"`
	Third  *string       `json:"third"`
	Fourth *string       `json:"fourth"`
	ID     string        `json:"ID"`
}

// Effects holds the four effect slots of a nested record.
type Effects struct {
	First  *string `json:"first"`
	Second *string `json:"second"`
	Third  *string `json:"third"`
	Fourth *string `json:"fourth"`
}

// NestedRecord is a combined entry with the slots under "effects".
type NestedRecord struct {
	Name    string        `json:"name"`
	Weight  parser.Weight `json:"weight"`
	Value   int           `json:"value"`
	Effects Effects       `json:"effects"`
	ID      string        `json:"ID"`
}

// KeyedRecord is the value of a mapping keyed by name.
type KeyedRecord struct {
	Weight  parser.Weight `json:"weight"`
	Value   int           `json:"value"`
	Effects Effects       `json:"effects"`
	ID      string        `json:"ID"`
}

// Documents shapes a parse result according to the variant. Separate
// variants yield a catalog and an effects document, in that order; combined
// variants yield a single document.
func Documents(v parser.Variant, result *parser.ParseResult) ([]Document, error) {
	switch v.Shape {
	case parser.ShapeSeparate:
		return []Document{
			{Role: RoleCatalog, Value: result.Catalog()},
			{Role: RoleEffects, Value: result.Effects()},
		}, nil
	case parser.ShapeCombined:
		value, err := combined(v, result.Records)
		if err != nil {
			return nil, err
		}
		return []Document{{Role: RoleCombined, Value: value}}, nil
	default:
		return nil, fmt.Errorf("unknown output shape %q", v.Shape)
	}
}

func combined(v parser.Variant, records []parser.Record) (any, error) {
	switch {
	case v.KeyedByName:
		// a repeated name replaces the earlier value in place
		out := ordered.NewMap(len(records))
		for _, r := range records {
			out.Set(r.Entry.Name, KeyedRecord{
				Weight:  r.Entry.Weight,
				Value:   r.Entry.Value,
				Effects: nestedEffects(r),
				ID:      r.Entry.ID,
			})
		}
		return out, nil

	case v.Layout == parser.LayoutNested:
		out := make([]NestedRecord, 0, len(records))
		for _, r := range records {
			out = append(out, NestedRecord{
				Name:    r.Entry.Name,
				Weight:  r.Entry.Weight,
				Value:   r.Entry.Value,
				Effects: nestedEffects(r),
				ID:      r.Entry.ID,
			})
		}
		return out, nil

	case v.Layout == parser.LayoutFlat:
		out := make([]FlatRecord, 0, len(records))
		for _, r := range records {
			out = append(out, FlatRecord{
				Name:   r.Entry.Name,
				Weight: r.Entry.Weight,
				Value:  r.Entry.Value,
				First:  r.Effects[0],
				Second: r.Effects[1],
				Third:  r.Effects[2],
				Fourth: r.Effects[3],
				ID:     r.Entry.ID,
			})
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown combined layout %q", v.Layout)
}

func nestedEffects(r parser.Record) Effects {
	return Effects{
		First:  r.Effects[0],
		Second: r.Effects[1],
		Third:  r.Effects[2],
		Fourth: r.Effects[3],
	}
}
