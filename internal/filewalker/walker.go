package filewalker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileEntry is a discovered input file.
type FileEntry struct {
	// Name is the prefix the file was looked up by.
	Name string
	Path string
}

// Discover looks for <prefix><ext> directly under root for each prefix.
// Present files are returned in prefix order; absent prefixes are returned
// as missing and logged as warnings.
func Discover(root, ext string, prefixes []string) ([]FileEntry, []string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var (
		found   []FileEntry
		missing []string
	)
	for _, prefix := range prefixes {
		path := filepath.Join(root, prefix+ext)
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			log.Warn().Str("file", prefix+ext).Str("root", root).Msg("Input file not found, skipping")
			missing = append(missing, prefix)
			continue
		}
		found = append(found, FileEntry{Name: prefix, Path: path})
	}

	log.Info().Int("count", len(found)).Int("missing", len(missing)).Str("root", root).Msg("Discovered files")
	return found, missing, nil
}
