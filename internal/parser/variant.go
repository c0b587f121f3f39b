package parser

import (
	"errors"
	"fmt"
	"sort"
)

// EffectsMode selects where a variant reads its effects from.
type EffectsMode string

const (
	// EffectsPerLine reads one effect from each of four dedicated lines.
	EffectsPerLine EffectsMode = "per_line"
	// EffectsCombinedColumn splits one comma-separated line into slots.
	EffectsCombinedColumn EffectsMode = "combined_column"
)

// OutputShape selects the JSON document(s) a variant produces.
type OutputShape string

const (
	// ShapeSeparate emits a catalog list and an effects list.
	ShapeSeparate OutputShape = "separate"
	// ShapeCombined emits one record per entry holding all effect slots.
	ShapeCombined OutputShape = "combined"
)

// CombinedLayout selects how effect slots appear in combined records.
type CombinedLayout string

const (
	LayoutFlat   CombinedLayout = "flat"
	LayoutNested CombinedLayout = "nested"
)

// NameTrim selects how whitespace is removed from the name field.
type NameTrim string

const (
	NameTrimRight NameTrim = "right"
	NameTrimFull  NameTrim = "full"
)

// FieldOffsets maps semantic fields to line indexes within a chunk.
type FieldOffsets struct {
	Name    int   `yaml:"name"`
	Weight  int   `yaml:"weight"`
	Value   int   `yaml:"value"`
	ID      int   `yaml:"id"`
	Effects []int `yaml:"effects"`
}

// Variant is the declarative configuration of one wiki table format.
type Variant struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	RecordLength  int            `yaml:"record_length"`
	Offsets       FieldOffsets   `yaml:"field_offsets"`
	EffectsMode   EffectsMode    `yaml:"effects_mode"`
	EffectsColumn int            `yaml:"effects_column"`
	DashIsNull    bool           `yaml:"dash_is_null"`
	Shape         OutputShape    `yaml:"output_shape"`
	Layout        CombinedLayout `yaml:"combined_layout"`
	KeyedByName   bool           `yaml:"keyed_by_name"`
	NameTrim      NameTrim       `yaml:"name_trim"`
}

// ErrInvalidVariant is returned by Validate for unusable configurations.
var ErrInvalidVariant = errors.New("invalid variant")

// Validate checks that every offset fits in the chunk and that the
// effects configuration yields exactly EffectSlots values.
func (v Variant) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidVariant)
	}
	if v.RecordLength < 2 {
		return fmt.Errorf("%w: %s: record_length %d is less than 2", ErrInvalidVariant, v.Name, v.RecordLength)
	}

	fields := map[string]int{
		"name":   v.Offsets.Name,
		"weight": v.Offsets.Weight,
		"value":  v.Offsets.Value,
		"id":     v.Offsets.ID,
	}

	switch v.EffectsMode {
	case EffectsPerLine:
		if len(v.Offsets.Effects) != EffectSlots {
			return fmt.Errorf("%w: %s: per_line effects need %d offsets, got %d",
				ErrInvalidVariant, v.Name, EffectSlots, len(v.Offsets.Effects))
		}
		for i, off := range v.Offsets.Effects {
			fields[SlotNames[i]] = off
		}
	case EffectsCombinedColumn:
		fields["effects_column"] = v.EffectsColumn
	default:
		return fmt.Errorf("%w: %s: unknown effects_mode %q", ErrInvalidVariant, v.Name, v.EffectsMode)
	}

	for field, off := range fields {
		// line 0 is the separator line of every chunk
		if off < 1 || off >= v.RecordLength {
			return fmt.Errorf("%w: %s: %s offset %d outside 1..%d",
				ErrInvalidVariant, v.Name, field, off, v.RecordLength-1)
		}
	}

	switch v.Shape {
	case ShapeSeparate:
	case ShapeCombined:
		if v.Layout != LayoutFlat && v.Layout != LayoutNested {
			return fmt.Errorf("%w: %s: unknown combined_layout %q", ErrInvalidVariant, v.Name, v.Layout)
		}
	default:
		return fmt.Errorf("%w: %s: unknown output_shape %q", ErrInvalidVariant, v.Name, v.Shape)
	}
	if v.KeyedByName && v.Shape != ShapeCombined {
		return fmt.Errorf("%w: %s: keyed_by_name requires combined output", ErrInvalidVariant, v.Name)
	}

	switch v.NameTrim {
	case "", NameTrimRight, NameTrimFull:
	default:
		return fmt.Errorf("%w: %s: unknown name_trim %q", ErrInvalidVariant, v.Name, v.NameTrim)
	}

	return nil
}

// Outputs returns how many JSON files the variant writes.
func (v Variant) Outputs() int {
	if v.Shape == ShapeSeparate {
		return 2
	}
	return 1
}

var (
	morrowindOffsets = FieldOffsets{Name: 1, Weight: 2, Value: 3, ID: 8, Effects: []int{4, 5, 6, 7}}
	oblivionOffsets  = FieldOffsets{Name: 1, Weight: 2, Value: 3, ID: 6}
	skyrimOffsets    = FieldOffsets{Name: 1, Weight: 6, Value: 7, ID: 9, Effects: []int{2, 3, 4, 5}}
)

// builtin holds the wiki table formats of the three editions. Oblivion
// line 4 (sources) and Skyrim line 8 (locations) are not extracted.
var builtin = []Variant{
	{
		Name:         "morrowind-alchemy",
		Description:  "Morrowind ingredients table, separate ingredient and effect files",
		RecordLength: 9,
		Offsets:      morrowindOffsets,
		EffectsMode:  EffectsPerLine,
		DashIsNull:   true,
		Shape:        ShapeSeparate,
	},
	{
		Name:         "morrowind-ingredients",
		Description:  "Morrowind ingredients table, mapping keyed by name with nested effects",
		RecordLength: 9,
		Offsets:      morrowindOffsets,
		EffectsMode:  EffectsPerLine,
		DashIsNull:   true,
		Shape:        ShapeCombined,
		Layout:       LayoutNested,
		KeyedByName:  true,
		NameTrim:     NameTrimFull,
	},
	{
		Name:          "oblivion-alchemy",
		Description:   "Oblivion ingredients table, separate ingredient and effect files",
		RecordLength:  7,
		Offsets:       oblivionOffsets,
		EffectsMode:   EffectsCombinedColumn,
		EffectsColumn: 5,
		Shape:         ShapeSeparate,
	},
	{
		Name:          "oblivion-ingredients",
		Description:   "Oblivion ingredients table, flat combined records",
		RecordLength:  7,
		Offsets:       oblivionOffsets,
		EffectsMode:   EffectsCombinedColumn,
		EffectsColumn: 5,
		Shape:         ShapeCombined,
		Layout:        LayoutFlat,
	},
	{
		Name:         "skyrim-alchemy",
		Description:  "Skyrim ingredients table, separate ingredient and effect files",
		RecordLength: 10,
		Offsets:      skyrimOffsets,
		EffectsMode:  EffectsPerLine,
		Shape:        ShapeSeparate,
	},
	{
		Name:         "skyrim-ingredients",
		Description:  "Skyrim ingredients table, flat combined records",
		RecordLength: 10,
		Offsets:      skyrimOffsets,
		EffectsMode:  EffectsPerLine,
		Shape:        ShapeCombined,
		Layout:       LayoutFlat,
	},
}

// Builtin returns copies of the built-in variants sorted by name.
func Builtin() []Variant {
	out := make([]Variant, len(builtin))
	copy(out, builtin)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Registry resolves variants by name.
type Registry struct {
	variants map[string]Variant
}

// NewRegistry creates a registry holding the built-in variants.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[string]Variant, len(builtin))}
	for _, v := range builtin {
		r.variants[v.Name] = v
	}
	return r
}

// Register validates v and adds it, replacing any variant of the same name.
func (r *Registry) Register(v Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.variants[v.Name] = v
	return nil
}

// Lookup returns the variant with the given name.
func (r *Registry) Lookup(name string) (Variant, bool) {
	v, ok := r.variants[name]
	return v, ok
}

// Names returns the registered variant names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in variant by name.
func Lookup(name string) (Variant, bool) {
	return NewRegistry().Lookup(name)
}
