package loader

import (
	"context"
	"fmt"

	"tamriel-catalog/internal/filewalker"
	"tamriel-catalog/internal/store"

	"github.com/rs/zerolog/log"
)

// Replacer applies a replace-by-key load. *store.DB implements it.
type Replacer interface {
	ReplaceByKey(ctx context.Context, spec store.TableSpec, rows []store.Row, source string) (*store.LoadStats, error)
}

// Load reads the JSON file at path and replaces its rows in the profile's table.
func Load(ctx context.Context, db Replacer, profile Profile, path string) (*store.LoadStats, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("profile", profile.Name).Str("path", path).Int("rows", len(rows)).Msg("Decoded JSON")

	stats, err := db.ReplaceByKey(ctx, profile.Table, rows, path)
	if err != nil {
		return nil, fmt.Errorf("load %s into %s: %w", path, profile.Table.Name, err)
	}
	return stats, nil
}

// LoadDir loads every enchant JSON file present in dir. Missing files are
// skipped and returned by prefix.
func LoadDir(ctx context.Context, db Replacer, dir string) ([]*store.LoadStats, []string, error) {
	entries, missing, err := filewalker.Discover(dir, ".json", EnchantPrefixes)
	if err != nil {
		return nil, nil, err
	}

	var all []*store.LoadStats
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return all, missing, err
		}

		profile, err := Lookup(EnchantPrefix + entry.Name)
		if err != nil {
			return all, missing, err
		}

		stats, err := Load(ctx, db, profile, entry.Path)
		if err != nil {
			return all, missing, err
		}
		all = append(all, stats)
	}
	return all, missing, nil
}
