package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// WikiTableParser turns fixed-length line groups of a wiki table into records.
type WikiTableParser struct {
	variant Variant
}

// NewWikiTableParser creates a parser for a validated variant.
func NewWikiTableParser(v Variant) (*WikiTableParser, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &WikiTableParser{variant: v}, nil
}

// Variant returns the parser configuration.
func (p *WikiTableParser) Variant() Variant { return p.variant }

// ParseFile reads and parses a whole file. A missing file yields
// ErrSourceNotFound.
func (p *WikiTableParser) ParseFile(filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, filePath)
		}
		return nil, fmt.Errorf("open wiki file: %w", err)
	}
	defer file.Close()

	lines, err := ReadLines(file)
	if err != nil {
		return nil, fmt.Errorf("scan wiki file: %w", err)
	}

	result, err := p.ParseLines(lines)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	result.FilePath = filePath
	return result, nil
}

// ReadLines splits r into lines, removing only the line terminators.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ParseLines groups lines into chunks of RecordLength and parses each one.
// Trailing lines that do not form a full chunk are dropped.
func (p *WikiTableParser) ParseLines(lines []string) (*ParseResult, error) {
	n := p.variant.RecordLength
	result := &ParseResult{
		Variant:   p.variant.Name,
		LineCount: len(lines),
		Records:   make([]Record, 0, len(lines)/n),
	}

	chunk := 0
	for len(lines) >= n {
		rec, err := p.parseChunk(chunk, lines[:n])
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, rec)

		log.Debug().
			Int("chunk", chunk).
			Str("name", rec.Entry.Name).
			Str("id", rec.Entry.ID).
			Msg("Parsed record")

		lines = lines[n:]
		chunk++
	}

	result.Dropped = len(lines)
	if result.Dropped > 0 {
		log.Debug().
			Str("variant", p.variant.Name).
			Int("lines", result.Dropped).
			Msg("Dropped trailing partial record")
	}

	return result, nil
}

func (p *WikiTableParser) parseChunk(chunk int, lines []string) (Record, error) {
	v := p.variant
	off := v.Offsets
	base := chunk * v.RecordLength

	malformed := func(field string, idx int, err error) error {
		return &MalformedRecordError{
			Chunk: chunk,
			Line:  base + idx + 1,
			Field: field,
			Value: lines[idx],
			Err:   err,
		}
	}

	weight, err := parseWeight(lines[off.Weight])
	if err != nil {
		return Record{}, malformed("weight", off.Weight, err)
	}
	value, err := parseValue(lines[off.Value])
	if err != nil {
		return Record{}, malformed("value", off.Value, err)
	}

	rec := Record{
		Chunk: chunk,
		Entry: CatalogEntry{
			Name:   normalizeName(lines[off.Name], v.NameTrim),
			Weight: weight,
			Value:  value,
			ID:     trimRight(TrimPipe(lines[off.ID])),
		},
	}

	switch v.EffectsMode {
	case EffectsPerLine:
		for i, idx := range off.Effects {
			rec.Effects[i] = normalizeEffect(lines[idx], v.DashIsNull)
		}
	case EffectsCombinedColumn:
		effects := splitEffects(lines[v.EffectsColumn])
		if len(effects) > EffectSlots {
			return Record{}, malformed("effects", v.EffectsColumn,
				fmt.Errorf("%w: %d values, at most %d", ErrTooManyEffects, len(effects), EffectSlots))
		}
		// remaining slots stay nil
		copy(rec.Effects[:], effects)
		if v.DashIsNull {
			for i, e := range rec.Effects {
				if e != nil && *e == noEffectMarker {
					rec.Effects[i] = nil
				}
			}
		}
	}

	return rec, nil
}

func parseWeight(raw string) (Weight, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(TrimPipe(raw)), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("weight %q is not a finite number", raw)
	}
	return Weight(f), nil
}

func parseValue(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(TrimPipe(raw)))
}
