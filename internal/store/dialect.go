package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name        string
	DriverName  string
	Goose       goose.Dialect
	Placeholder sq.PlaceholderFormat

	// tableExists counts tables with the name given as the only argument.
	tableExists string

	TypeText    string
	TypeReal    string
	TypeInteger string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		DriverName:  "sqlite3",
		Goose:       goose.DialectSQLite3,
		Placeholder: sq.Question,
		tableExists: `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		TypeText:    "TEXT",
		TypeReal:    "REAL",
		TypeInteger: "INTEGER",
	}

	Postgres = Dialect{
		Name:        "postgres",
		DriverName:  "pgx",
		Goose:       goose.DialectPostgres,
		Placeholder: sq.Dollar,
		tableExists: `SELECT count(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1`,
		TypeText:    "TEXT",
		TypeReal:    "DOUBLE PRECISION",
		TypeInteger: "BIGINT",
	}
)

// DialectFor picks the dialect for a DSN: postgres URLs use PostgreSQL,
// anything else is a SQLite file path.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// QuoteIdent quotes an identifier for both SQLite and PostgreSQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = QuoteIdent(n)
	}
	return out
}
