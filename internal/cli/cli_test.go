package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"tamriel-catalog/internal/config"
	"tamriel-catalog/internal/parser"
	"tamriel-catalog/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func TestParseCommand_Separate(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "ingredients.json")
	effects := filepath.Join(dir, "effects.json")

	_, err := run(t, "parse", "morrowind-alchemy", testdata("morrowind.txt"), catalog, effects)
	require.NoError(t, err)

	data, err := os.ReadFile(catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name": "Alit Hide", "weight": 1.0, "value": 5, "ID": "ingred_alit_hide_01"},
		{"name": "Ash Salts", "weight": 0.1, "value": 25, "ID": "ingred_ash_salts_01"}
	]`, string(data))
	assert.Contains(t, string(data), `"weight": 1.0`)

	data, err = os.ReadFile(effects)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name": "Alit Hide", "effect": "Drain Intelligence"},
		{"name": "Alit Hide", "effect": "Resist Poison"},
		{"name": "Alit Hide", "effect": "Telekinesis"},
		{"name": "Alit Hide", "effect": "Detect Animal"},
		{"name": "Ash Salts", "effect": "Drain Agility"},
		{"name": "Ash Salts", "effect": "Resist Magicka"},
		{"name": "Ash Salts", "effect": "Cure Blight Disease"},
		{"name": "Ash Salts", "effect": null}
	]`, string(data))
}

func TestParseCommand_Combined(t *testing.T) {
	out := filepath.Join(t.TempDir(), "oblivion.json")

	_, err := run(t, "parse", "oblivion-ingredients", testdata("oblivion.txt"), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name": "Alkanet Flower", "weight": 0.1, "value": 1,
		 "first": "Restore Intelligence", "second": "Resist Poison", "third": "Light", "fourth": "Damage Fatigue",
		 "ID": "00038E7C"},
		{"name": "Bonemeal", "weight": 0.2, "value": 2,
		 "first": "Damage Fatigue", "second": "Resist Fire", "third": "Fortify Health", "fourth": null,
		 "ID": "0000D3F5"}
	]`, string(data))
}

func TestParseCommand_Failures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("|-\n|only\n"), 0o644))
	out := filepath.Join(dir, "out.json")

	_, err := run(t, "parse", "skyrim-ingredients", filepath.Join(dir, "missing.txt"), out)
	assert.ErrorIs(t, err, parser.ErrSourceNotFound)

	_, err = run(t, "parse", "skyrim-ingredients", empty, out)
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.NoFileExists(t, out)

	_, err = run(t, "parse", "skyrim-alchemy", testdata("oblivion.txt"), out)
	assert.ErrorContains(t, err, "writes 2 file(s)")

	_, err = run(t, "parse", "daggerfall", testdata("oblivion.txt"), out)
	assert.ErrorContains(t, err, "unknown variant")

	_, err = run(t, "parse", "skyrim-alchemy")
	assert.Error(t, err)
}

func TestVariantsCommand(t *testing.T) {
	out, err := run(t, "variants")
	require.NoError(t, err)
	for _, v := range parser.Builtin() {
		assert.Contains(t, out, v.Name)
	}
}

func TestConvertLoadHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db", "enchant.db")

	_, err := run(t, "convert-csv", testdata("enchant"), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "armor.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"ID": "bonemold_helm", "Name": "Bonemold Helm", "Value": "100", "Enchant": "70"},
		{"ID": "netch_leather_boots", "Name": "Netch Leather Boots, Worn", "Value": "10", "Enchant": "20"}
	]`, string(data))
	assert.FileExists(t, filepath.Join(dir, "books.json"))
	assert.NoFileExists(t, filepath.Join(dir, "clothing.json"))

	_, err = run(t, "load-dir", dir, db)
	require.NoError(t, err)

	_, err = run(t, "load", "morrowind_enchant_armor", filepath.Join(dir, "armor.json"), db)
	require.NoError(t, err)

	out, err := run(t, "history", "--limit", "1", db)
	require.NoError(t, err)
	assert.Contains(t, out, "morrowind_enchant_armor")
	assert.NotContains(t, out, "morrowind_enchant_books")

	out, err = run(t, "history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "morrowind_enchant_books")

	_, err = run(t, "load", "no_such_profile", filepath.Join(dir, "armor.json"), db)
	assert.Error(t, err)

	_, err = run(t, "convert-csv", testdata("enchant"), filepath.Join(dir, "missing-out"))
	assert.Error(t, err)
}

func TestRunManifest(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg := &config.Config{WorkerCount: 2, InsertBatchSize: 1, JournalLimit: 20}
	a := &app{cfg: cfg}

	m := &config.Manifest{
		Jobs: []config.ParseJob{
			{
				Variant:       "morrowind-alchemy",
				Input:         filepath.Join(wd, testdata("morrowind.txt")),
				Output:        filepath.Join(dir, "m_ingredients.json"),
				EffectsOutput: filepath.Join(dir, "m_effects.json"),
			},
			{
				Variant: "oblivion-ingredients",
				Input:   filepath.Join(wd, testdata("oblivion.txt")),
				Output:  filepath.Join(dir, "o_ingredients.json"),
			},
		},
		Loads: []config.LoadJob{
			{Profile: "morrowind_alchemy_ingredients", Input: filepath.Join(dir, "m_ingredients.json"), DB: filepath.Join(dir, "alchemy.db")},
			{Profile: "morrowind_alchemy_effects", Input: filepath.Join(dir, "m_effects.json"), DB: filepath.Join(dir, "alchemy.db")},
			{Profile: "oblivion_ingredients", Input: filepath.Join(dir, "o_ingredients.json"), DB: filepath.Join(dir, "alchemy.db")},
		},
	}

	ctx := context.Background()
	require.NoError(t, a.runManifest(ctx, m))

	db, err := store.Open(ctx, filepath.Join(dir, "alchemy.db"))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM morrowind_alchemy_effects`))
	assert.Equal(t, 8, n)
	require.NoError(t, db.SQL().Get(&n, `SELECT count(*) FROM oblivion_ingredients WHERE fourth IS NULL`))
	assert.Equal(t, 1, n)

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestRunManifest_ParseFailureSkipsLoads(t *testing.T) {
	dir := t.TempDir()
	a := &app{cfg: &config.Config{WorkerCount: 1, InsertBatchSize: 100}}

	m := &config.Manifest{
		Jobs: []config.ParseJob{
			{Variant: "skyrim-ingredients", Input: filepath.Join(dir, "missing.txt"), Output: filepath.Join(dir, "out.json")},
		},
		Loads: []config.LoadJob{
			{Profile: "skyrim_ingredients", Input: filepath.Join(dir, "out.json"), DB: filepath.Join(dir, "x.db")},
		},
	}

	err := a.runManifest(context.Background(), m)
	assert.ErrorIs(t, err, parser.ErrSourceNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "x.db"))
}

func TestRunManifest_CustomVariant(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)

	a := &app{cfg: &config.Config{WorkerCount: 1, InsertBatchSize: 100}}
	m := &config.Manifest{
		Variants: []parser.Variant{{
			Name:          "oblivion-nested",
			RecordLength:  7,
			Offsets:       parser.FieldOffsets{Name: 1, Weight: 2, Value: 3, ID: 6},
			EffectsMode:   parser.EffectsCombinedColumn,
			EffectsColumn: 5,
			Shape:         parser.ShapeCombined,
			Layout:        parser.LayoutNested,
		}},
		Jobs: []config.ParseJob{
			{Variant: "oblivion-nested", Input: filepath.Join(wd, testdata("oblivion.txt")), Output: filepath.Join(dir, "nested.json")},
		},
	}
	require.NoError(t, a.runManifest(context.Background(), m))

	data, err := os.ReadFile(filepath.Join(dir, "nested.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"effects": {`)
}
