package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is a catalog database connection.
type DB struct {
	db      *sqlx.DB
	dialect Dialect
	builder sq.StatementBuilderType
	// batchSize is the number of rows per multi-row INSERT.
	batchSize int
}

// Option configures a DB.
type Option func(*DB)

// WithBatchSize sets the number of rows per INSERT statement.
func WithBatchSize(n int) Option {
	return func(d *DB) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// Open connects to dsn, applies the journal migrations and returns the DB.
// SQLite parent directories are created as needed.
func Open(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	dialect := DialectFor(dsn)

	if dialect.Name == SQLite.Name {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if dialect.Name == SQLite.Name {
		// one writer at a time; the pool must not hand out a second connection mid-transaction
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma busy_timeout: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	d := &DB{
		db:        db,
		dialect:   dialect,
		builder:   sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("dialect", dialect.Name).Msg("Connected to catalog database")
	return d, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Dialect returns the database dialect.
func (d *DB) Dialect() Dialect { return d.dialect }

// SQL exposes the underlying connection for read queries.
func (d *DB) SQL() *sqlx.DB { return d.db }

func (d *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(d.dialect.Goose, d.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Debug().Str("migration", r.Source.Path).Msg("Applied migration")
	}
	return nil
}
