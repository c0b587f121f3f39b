package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"tamriel-catalog/internal/ordered"
	"tamriel-catalog/internal/store"

	"github.com/tidwall/gjson"
)

// DecodeError reports a JSON document that cannot be loaded. Line and
// Column are 1-based and zero when the position is unknown.
type DecodeError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("decode %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("decode %s: line %d, column %d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// ReadFile reads the JSON document at path and converts it to rows.
func ReadFile(path string) ([]store.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode converts a JSON document into table rows. The document is either
// an array of objects or an object mapping a name to an object; in the
// second form the key becomes the leading "name" column. Nested objects are
// flattened one level and arrays are kept as JSON text. A column name that
// occurs twice in one row, including through flattening, is an error.
func Decode(path string, data []byte) ([]store.Row, error) {
	if !gjson.ValidBytes(data) {
		return nil, syntaxError(path, data)
	}

	doc := gjson.ParseBytes(data)
	var (
		rows   []store.Row
		failed *DecodeError
	)

	switch {
	case doc.IsArray():
		i := 0
		doc.ForEach(func(_, value gjson.Result) bool {
			if !value.IsObject() {
				failed = &DecodeError{Path: path, Msg: fmt.Sprintf("element %d is not an object", i)}
				return false
			}
			row := ordered.NewMap(0)
			if col, ok := flatten(row, value); !ok {
				failed = &DecodeError{Path: path, Msg: fmt.Sprintf("element %d: duplicate column %q", i, col)}
				return false
			}
			rows = append(rows, row)
			i++
			return true
		})
	case doc.IsObject():
		doc.ForEach(func(key, value gjson.Result) bool {
			if !value.IsObject() {
				failed = &DecodeError{Path: path, Msg: fmt.Sprintf("entry %q is not an object", key.String())}
				return false
			}
			row := ordered.NewMap(0)
			row.Set("name", key.String())
			if col, ok := flatten(row, value); !ok {
				failed = &DecodeError{Path: path, Msg: fmt.Sprintf("entry %q: duplicate column %q", key.String(), col)}
				return false
			}
			rows = append(rows, row)
			return true
		})
	default:
		return nil, &DecodeError{Path: path, Msg: "document must be an array or an object"}
	}

	if failed != nil {
		return nil, failed
	}
	return rows, nil
}

// flatten copies obj into row, lifting the fields of nested objects. It
// stops at the first column that is already set and returns its name.
func flatten(row *ordered.Map, obj gjson.Result) (string, bool) {
	dup := ""
	set := func(key, value gjson.Result) bool {
		col := key.String()
		if _, exists := row.Get(col); exists {
			dup = col
			return false
		}
		row.Set(col, scalar(value))
		return true
	}

	obj.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() {
			value.ForEach(set)
			return dup == ""
		}
		return set(key, value)
	})
	return dup, dup == ""
}

func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			return v.Float()
		}
		return v.Int()
	case gjson.String:
		return v.String()
	default:
		// arrays and deeper objects
		return v.Raw
	}
}

// syntaxError locates the first syntax error in data.
func syntaxError(path string, data []byte) error {
	var v any
	err := json.Unmarshal(data, &v)

	var se *json.SyntaxError
	if !errors.As(err, &se) {
		msg := "invalid JSON"
		if err != nil {
			msg = err.Error()
		}
		return &DecodeError{Path: path, Msg: msg}
	}

	offset := int(se.Offset)
	if offset > len(data) {
		offset = len(data)
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	column := len(prefix) - (bytes.LastIndexByte(prefix, '\n') + 1)
	if column == 0 {
		column = 1
	}
	return &DecodeError{Path: path, Line: line, Column: column, Msg: se.Error()}
}
