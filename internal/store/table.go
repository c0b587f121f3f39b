package store

import (
	"errors"
	"fmt"
	"strings"

	"tamriel-catalog/internal/ordered"
)

var (
	// ErrUnknownColumn reports incoming data with a column the existing table lacks.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrMissingColumn reports a key or index column absent from the data.
	ErrMissingColumn = errors.New("missing column")
)

// TableSpec describes a keyed catalog table.
type TableSpec struct {
	Name string
	// Key is the natural key column; existing rows whose key matches an
	// incoming key are replaced.
	Key string
	// IndexName and IndexColumns describe the index created with the table.
	IndexName    string
	IndexColumns []string
	// Unique makes the index unique; duplicate keys then fail the load.
	Unique bool
}

// Validate checks the spec is complete.
func (s TableSpec) Validate() error {
	if s.Name == "" || s.Key == "" {
		return fmt.Errorf("table spec needs a name and a key: %+v", s)
	}
	if s.IndexName == "" || len(s.IndexColumns) == 0 {
		return fmt.Errorf("table %s: index name and columns are required", s.Name)
	}
	return nil
}

// Row is one table row; keys are column names in column order.
type Row = *ordered.Map

// column is a column derived from incoming rows.
type column struct {
	name string
	kind string
}

// columnsOf returns the union of row keys in order of first appearance,
// typed by the first non-null value.
func columnsOf(rows []Row, d Dialect) []column {
	var cols []column
	index := make(map[string]int)

	for _, row := range rows {
		for _, k := range row.Keys() {
			v, _ := row.Get(k)
			i, seen := index[k]
			if !seen {
				index[k] = len(cols)
				cols = append(cols, column{name: k, kind: sqlType(v, d)})
				continue
			}
			if cols[i].kind == "" {
				cols[i].kind = sqlType(v, d)
			}
		}
	}

	for i := range cols {
		if cols[i].kind == "" {
			cols[i].kind = d.TypeText
		}
	}
	return cols
}

// sqlType maps a Go value to a column type; nil has no type yet.
func sqlType(v any, d Dialect) string {
	switch v.(type) {
	case nil:
		return ""
	case int, int32, int64, bool:
		return d.TypeInteger
	case float32, float64:
		return d.TypeReal
	default:
		return d.TypeText
	}
}

func createTableSQL(name string, cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = QuoteIdent(c.name) + " " + c.kind
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
}

func createIndexSQL(spec TableSpec) string {
	unique := ""
	if spec.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, QuoteIdent(spec.IndexName), QuoteIdent(spec.Name),
		strings.Join(quoteAll(spec.IndexColumns), ", "))
}

// bindValue converts a row value into a driver argument.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
