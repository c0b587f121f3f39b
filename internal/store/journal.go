package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const journalTable = "load_runs"

// timeLayout is fixed-width so that loaded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// LoadRun is one journal entry.
type LoadRun struct {
	ID           string `db:"id"`
	Table        string `db:"table_name"`
	Source       string `db:"source"`
	RowsDeleted  int64  `db:"rows_deleted"`
	RowsInserted int64  `db:"rows_inserted"`
	CreatedTable bool   `db:"created_table"`
	LoadedAt     string `db:"loaded_at"`
}

func (d *DB) recordRun(ctx context.Context, tx *sqlx.Tx, stats *LoadStats) error {
	created := 0
	if stats.CreatedTable {
		created = 1
	}

	query, args, err := d.builder.
		Insert(journalTable).
		Columns("id", "table_name", "source", "rows_deleted", "rows_inserted", "created_table", "loaded_at").
		Values(stats.RunID, stats.Table, stats.Source, stats.Deleted, stats.Inserted, created,
			stats.LoadedAt.UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build journal insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record load run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent load runs, newest first. A limit of zero
// or less returns every run.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]LoadRun, error) {
	q := d.builder.
		Select("id", "table_name", "source", "rows_deleted", "rows_inserted", "created_table", "loaded_at").
		From(journalTable).
		OrderBy("loaded_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build journal query: %w", err)
	}

	var runs []LoadRun
	if err := d.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list load runs: %w", err)
	}
	return runs, nil
}

// LoadedAtTime parses the stored timestamp.
func (r LoadRun) LoadedAtTime() (time.Time, error) {
	return time.Parse(timeLayout, r.LoadedAt)
}
