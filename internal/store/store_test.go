package store

import (
	"context"
	"path/filepath"
	"testing"

	"tamriel-catalog/internal/ordered"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "data", "catalog.db")
	db, err := Open(context.Background(), dsn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func row(kv ...any) Row {
	r := ordered.NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

var ingredients = TableSpec{
	Name:         "skyrim_ingredients",
	Key:          "name",
	IndexName:    "s_i_name",
	IndexColumns: []string{"name"},
	Unique:       true,
}

var effects = TableSpec{
	Name:         "skyrim_alchemy_effects",
	Key:          "name",
	IndexName:    "s_e_name_effect",
	IndexColumns: []string{"name", "effect"},
}

type ingredientRow struct {
	Name   string  `db:"name"`
	Weight float64 `db:"weight"`
	Value  int64   `db:"value"`
}

func listIngredients(t *testing.T, db *DB) []ingredientRow {
	t.Helper()
	var out []ingredientRow
	require.NoError(t, db.SQL().Select(&out, `SELECT name, weight, value FROM skyrim_ingredients ORDER BY name`))
	return out
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, SQLite.Name, db.Dialect().Name)

	var n int
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'load_runs'`))
	assert.Equal(t, 1, n)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres.Name, DialectFor("postgres://u:p@localhost/db").Name)
	assert.Equal(t, Postgres.Name, DialectFor("PostgreSQL://localhost/db").Name)
	assert.Equal(t, SQLite.Name, DialectFor("data/alchemy.db").Name)
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}

func TestReplaceByKey_CreatesTableAndIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stats, err := db.ReplaceByKey(ctx, ingredients, []Row{
		row("name", "Abecean Longfin", "weight", 0.5, "value", int64(15)),
		row("name", "Bear Claws", "weight", 0.1, "value", int64(2)),
	}, "skyrim.json")
	require.NoError(t, err)

	assert.True(t, stats.CreatedTable)
	assert.EqualValues(t, 2, stats.Inserted)
	assert.EqualValues(t, 0, stats.Deleted)
	assert.NotEmpty(t, stats.RunID)

	assert.Equal(t, []ingredientRow{
		{Name: "Abecean Longfin", Weight: 0.5, Value: 15},
		{Name: "Bear Claws", Weight: 0.1, Value: 2},
	}, listIngredients(t, db))

	var indexSQL string
	require.NoError(t, db.SQL().Get(&indexSQL, `SELECT sql FROM sqlite_master WHERE type = 'index' AND name = 's_i_name'`))
	assert.Contains(t, indexSQL, "CREATE UNIQUE INDEX")
}

func TestReplaceByKey_ColumnTypes(t *testing.T) {
	db := openTestDB(t)

	_, err := db.ReplaceByKey(context.Background(), ingredients, []Row{
		row("name", "Abecean Longfin", "weight", nil, "value", int64(15), "rare", true),
		row("name", "Bear Claws", "weight", 0.1, "value", int64(2), "rare", false),
	}, "skyrim.json")
	require.NoError(t, err)

	var weightType, valueType, rare string
	require.NoError(t, db.SQL().Get(&weightType, `SELECT typeof(weight) FROM skyrim_ingredients WHERE name = 'Bear Claws'`))
	require.NoError(t, db.SQL().Get(&valueType, `SELECT typeof(value) FROM skyrim_ingredients WHERE name = 'Bear Claws'`))
	require.NoError(t, db.SQL().Get(&rare, `SELECT CAST(rare AS TEXT) FROM skyrim_ingredients WHERE name = 'Abecean Longfin'`))
	assert.Equal(t, "real", weightType)
	assert.Equal(t, "integer", valueType)
	assert.Equal(t, "1", rare)
}

func TestReplaceByKey_ReplacesMatchingKeys(t *testing.T) {
	db := openTestDB(t, WithBatchSize(2))
	ctx := context.Background()

	_, err := db.ReplaceByKey(ctx, ingredients, []Row{
		row("name", "A", "weight", 1.0, "value", int64(1)),
		row("name", "B", "weight", 1.0, "value", int64(2)),
		row("name", "C", "weight", 1.0, "value", int64(3)),
	}, "first.json")
	require.NoError(t, err)

	stats, err := db.ReplaceByKey(ctx, ingredients, []Row{
		row("name", "B", "weight", 2.0, "value", int64(20)),
		row("name", "D", "weight", 2.0, "value", int64(40)),
	}, "second.json")
	require.NoError(t, err)

	assert.False(t, stats.CreatedTable)
	assert.EqualValues(t, 1, stats.Deleted)
	assert.EqualValues(t, 2, stats.Inserted)

	assert.Equal(t, []ingredientRow{
		{Name: "A", Weight: 1, Value: 1},
		{Name: "B", Weight: 2, Value: 20},
		{Name: "C", Weight: 1, Value: 3},
		{Name: "D", Weight: 2, Value: 40},
	}, listIngredients(t, db))
}

func TestReplaceByKey_NonUniqueKeyReplacesAllRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceByKey(ctx, effects, []Row{
		row("name", "Bear Claws", "effect", "Restore Stamina"),
		row("name", "Bear Claws", "effect", "Fortify Health"),
		row("name", "Bee", "effect", nil),
	}, "effects.json")
	require.NoError(t, err)

	stats, err := db.ReplaceByKey(ctx, effects, []Row{
		row("name", "Bear Claws", "effect", "Damage Magicka Regen"),
	}, "effects.json")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Deleted)

	var n int
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM skyrim_alchemy_effects`))
	assert.Equal(t, 2, n)

	var indexSQL string
	require.NoError(t, db.SQL().Get(&indexSQL, `SELECT sql FROM sqlite_master WHERE type = 'index' AND name = 's_e_name_effect'`))
	assert.NotContains(t, indexSQL, "UNIQUE")
}

func TestReplaceByKey_RollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceByKey(ctx, ingredients, []Row{
		row("name", "A", "weight", 1.0, "value", int64(1)),
		row("name", "B", "weight", 1.0, "value", int64(2)),
	}, "first.json")
	require.NoError(t, err)

	// B is deleted, then the duplicate C violates the unique index
	_, err = db.ReplaceByKey(ctx, ingredients, []Row{
		row("name", "B", "weight", 5.0, "value", int64(5)),
		row("name", "C", "weight", 1.0, "value", int64(3)),
		row("name", "C", "weight", 1.0, "value", int64(3)),
	}, "second.json")
	require.Error(t, err)

	assert.Equal(t, []ingredientRow{
		{Name: "A", Weight: 1, Value: 1},
		{Name: "B", Weight: 1, Value: 2},
	}, listIngredients(t, db))

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReplaceByKey_ColumnErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceByKey(ctx, ingredients, []Row{row("title", "A")}, "bad.json")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = db.ReplaceByKey(ctx, effects, []Row{row("name", "A")}, "bad.json")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = db.ReplaceByKey(ctx, ingredients, []Row{row("name", "A", "value", int64(1))}, "ok.json")
	require.NoError(t, err)

	_, err = db.ReplaceByKey(ctx, ingredients, []Row{row("name", "A", "color", "red")}, "bad.json")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	var n int
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM skyrim_ingredients WHERE name = 'A'`))
	assert.Equal(t, 1, n)

	_, err = db.ReplaceByKey(ctx, TableSpec{Name: "t"}, nil, "bad.json")
	assert.Error(t, err)
}

func TestReplaceByKey_NoRows(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.ReplaceByKey(context.Background(), ingredients, nil, "empty.json")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.Inserted)
	assert.False(t, stats.CreatedTable)

	var n int
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM sqlite_master WHERE name = 'skyrim_ingredients'`))
	assert.Zero(t, n)
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceByKey(ctx, ingredients, []Row{row("name", "A")}, "first.json")
	require.NoError(t, err)
	_, err = db.ReplaceByKey(ctx, ingredients, []Row{row("name", "A"), row("name", "B")}, "second.json")
	require.NoError(t, err)

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "second.json", runs[0].Source)
	assert.EqualValues(t, 1, runs[0].RowsDeleted)
	assert.EqualValues(t, 2, runs[0].RowsInserted)
	assert.False(t, runs[0].CreatedTable)
	assert.Equal(t, "first.json", runs[1].Source)
	assert.True(t, runs[1].CreatedTable)
	assert.Equal(t, "skyrim_ingredients", runs[1].Table)

	loadedAt, err := runs[0].LoadedAtTime()
	require.NoError(t, err)
	assert.False(t, loadedAt.IsZero())

	runs, err = db.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "second.json", runs[0].Source)
}
