package store

import (
	"context"
	"fmt"
	"time"

	"tamriel-catalog/internal/worker"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// deleteBatchSize bounds the number of keys in one DELETE ... IN (...).
const deleteBatchSize = 500

// LoadStats summarizes one ReplaceByKey call.
type LoadStats struct {
	RunID        string
	Table        string
	Source       string
	Deleted      int64
	Inserted     int64
	CreatedTable bool
	LoadedAt     time.Time
}

// ReplaceByKey loads rows into the table described by spec in a single
// transaction. If the table exists, rows whose key matches any incoming key
// are deleted first; otherwise the table and its index are created. The
// load is recorded in the journal. On any error nothing is changed.
func (d *DB) ReplaceByKey(ctx context.Context, spec TableSpec, rows []Row, source string) (*LoadStats, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cols := columnsOf(rows, d.dialect)
	if len(cols) == 0 {
		log.Warn().Str("table", spec.Name).Str("source", source).Msg("No rows to load")
		return &LoadStats{Table: spec.Name, Source: source}, nil
	}
	if err := checkColumns(spec, cols); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stats := &LoadStats{
		RunID:    uuid.NewString(),
		Table:    spec.Name,
		Source:   source,
		LoadedAt: time.Now().UTC(),
	}

	exists, err := d.tableExists(ctx, tx, spec.Name)
	if err != nil {
		return nil, err
	}

	if exists {
		if err := d.checkExistingColumns(ctx, tx, spec.Name, cols); err != nil {
			return nil, err
		}
		stats.Deleted, err = d.deleteKeys(ctx, tx, spec, rows)
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := tx.ExecContext(ctx, createTableSQL(spec.Name, cols)); err != nil {
			return nil, fmt.Errorf("create table %s: %w", spec.Name, err)
		}
		if _, err := tx.ExecContext(ctx, createIndexSQL(spec)); err != nil {
			return nil, fmt.Errorf("create index %s: %w", spec.IndexName, err)
		}
		stats.CreatedTable = true
		log.Debug().Str("table", spec.Name).Str("index", spec.IndexName).Msg("Created table")
	}

	stats.Inserted, err = d.insertRows(ctx, tx, spec.Name, cols, rows)
	if err != nil {
		return nil, err
	}

	if err := d.recordRun(ctx, tx, stats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	log.Info().
		Str("table", spec.Name).
		Int64("deleted", stats.Deleted).
		Int64("inserted", stats.Inserted).
		Bool("created", stats.CreatedTable).
		Msg("Replaced rows by key")

	return stats, nil
}

func checkColumns(spec TableSpec, cols []column) error {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c.name] = true
	}
	if !present[spec.Key] {
		return fmt.Errorf("%w: key %q not in data for %s", ErrMissingColumn, spec.Key, spec.Name)
	}
	for _, c := range spec.IndexColumns {
		if !present[c] {
			return fmt.Errorf("%w: index column %q not in data for %s", ErrMissingColumn, c, spec.Name)
		}
	}
	return nil
}

func (d *DB) tableExists(ctx context.Context, tx *sqlx.Tx, name string) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, d.dialect.tableExists, name); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

func (d *DB) checkExistingColumns(ctx context.Context, tx *sqlx.Tx, table string, cols []column) error {
	rows, err := tx.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", QuoteIdent(table)))
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	existing, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", table, err)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}
	for _, c := range cols {
		if !have[c.name] {
			return fmt.Errorf("%w: %q in table %s", ErrUnknownColumn, c.name, table)
		}
	}
	return nil
}

// deleteKeys removes rows whose key equals any distinct incoming key.
func (d *DB) deleteKeys(ctx context.Context, tx *sqlx.Tx, spec TableSpec, rows []Row) (int64, error) {
	seen := make(map[any]bool)
	var keys []any
	for _, row := range rows {
		k, ok := row.Get(spec.Key)
		if !ok || k == nil || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	var deleted int64
	for _, batch := range worker.Batch(keys, deleteBatchSize) {
		query, args, err := d.builder.
			Delete(QuoteIdent(spec.Name)).
			Where(sq.Eq{QuoteIdent(spec.Key): batch}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build delete: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("delete from %s: %w", spec.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete from %s: %w", spec.Name, err)
		}
		deleted += n
	}
	return deleted, nil
}

func (d *DB) insertRows(ctx context.Context, tx *sqlx.Tx, table string, cols []column, rows []Row) (int64, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = QuoteIdent(c.name)
	}

	var inserted int64
	for _, batch := range worker.Batch(rows, d.batchSize) {
		insert := d.builder.Insert(QuoteIdent(table)).Columns(names...)
		for _, row := range batch {
			values := make([]any, len(cols))
			for i, c := range cols {
				v, _ := row.Get(c.name)
				values[i] = bindValue(v)
			}
			insert = insert.Values(values...)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted += int64(len(batch))
	}
	return inserted, nil
}
