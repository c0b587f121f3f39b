package parser

import (
	"strings"
	"unicode"
)

// noEffectMarker is the wiki's placeholder for an unused effect slot.
const noEffectMarker = "-"

// TrimPipe strips the leading cell pipes of a wiki table line. Values with
// no pipe at all are returned untouched.
func TrimPipe(value string) string {
	if !strings.Contains(value, "|") {
		return value
	}
	return strings.TrimLeft(value, "|")
}

// ResolvePipeTrick keeps the display text of a "Target|Display" link.
//
//	"Resist Poison (Morrowind)|Resist Poison" -> "Resist Poison"
func ResolvePipeTrick(value string) string {
	parts := strings.Split(value, "|")
	if len(parts) < 2 {
		return value
	}
	return parts[1]
}

// NormalizeField applies pipe trimming, pipe-trick resolution and trailing
// whitespace removal, in that order.
func NormalizeField(raw string) string {
	return trimRight(ResolvePipeTrick(TrimPipe(raw)))
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// normalizeName trims the name according to mode.
func normalizeName(raw string, mode NameTrim) string {
	name := NormalizeField(raw)
	if mode == NameTrimFull {
		name = strings.Join(strings.Fields(name), " ")
	}
	return name
}

// normalizeEffect returns nil for the no-effect marker when dashIsNull is set.
func normalizeEffect(raw string, dashIsNull bool) *string {
	effect := NormalizeField(raw)
	if dashIsNull && effect == noEffectMarker {
		return nil
	}
	return &effect
}

// splitEffects splits a combined effects column into its effects. Every
// segment keeps its slot, so an empty column yields one empty effect.
func splitEffects(raw string) []*string {
	column := NormalizeField(raw)

	parts := strings.Split(column, ",")
	effects := make([]*string, 0, len(parts))
	for _, part := range parts {
		part := trimRight(part)
		effects = append(effects, &part)
	}
	return effects
}
