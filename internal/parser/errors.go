package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound reports that the input file does not exist, so
	// nothing was parsed. It is distinct from a file that parsed to zero records.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrMalformedRecord is wrapped by every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrTooManyEffects reports a combined effects column with more than
	// EffectSlots values.
	ErrTooManyEffects = errors.New("too many effects")
)

// MalformedRecordError identifies the chunk and field that failed to parse.
type MalformedRecordError struct {
	// Chunk is the 0-based chunk index.
	Chunk int
	// Line is the 1-based line number of the field in the source.
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d, line %d: field %s = %q: %v", e.Chunk, e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}
