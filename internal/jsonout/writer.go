package jsonout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tamriel-catalog/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Encode renders v the way every output file is written: two-space
// indentation, no HTML escaping, trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes v and replaces the file at outputPath with it. Nothing
// is written when encoding fails.
func WriteFile(outputPath string, v any) error {
	return WriteAll([]Document{{Role: RoleCombined, Value: v}}, []string{outputPath})
}

// WriteAll writes each document to the path at the same position. Every
// document is encoded and staged next to its destination before any
// destination is replaced, so a failed run leaves existing files untouched.
func WriteAll(docs []Document, paths []string) error {
	if len(docs) != len(paths) {
		return fmt.Errorf("%d documents for %d output paths", len(docs), len(paths))
	}

	encoded := make([][]byte, len(docs))
	for i, d := range docs {
		data, err := Encode(d.Value)
		if err != nil {
			return fmt.Errorf("%s document: %w", d.Role, err)
		}
		encoded[i] = data
	}

	staged := make([]string, 0, len(paths))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for i, data := range encoded {
		tmp, err := stage(paths[i], data)
		if err != nil {
			return fmt.Errorf("write %s JSON file: %w", docs[i].Role, err)
		}
		staged = append(staged, tmp)
	}

	for i, tmp := range staged {
		if err := os.Rename(tmp, paths[i]); err != nil {
			return fmt.Errorf("replace %s: %w", paths[i], err)
		}
		log.Info().
			Str("path", paths[i]).
			Str("role", string(docs[i].Role)).
			Int("bytes", len(encoded[i])).
			Str("sha256", textutil.ShortHash(string(encoded[i]))).
			Msg("Wrote JSON")
	}
	staged = nil
	return nil
}

// stage writes data to a temporary file in the directory of path.
func stage(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(0o644)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
