package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tamriel-catalog/internal/parser"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrInvalidManifest is returned for manifests with incomplete jobs.
var ErrInvalidManifest = errors.New("invalid manifest")

// ParseJob converts one wiki table file.
type ParseJob struct {
	Variant       string `yaml:"variant"`
	Input         string `yaml:"input"`
	Output        string `yaml:"output"`
	EffectsOutput string `yaml:"effects_output"`
}

// LoadJob loads one JSON file into a database.
type LoadJob struct {
	Profile string `yaml:"profile"`
	Input   string `yaml:"input"`
	DB      string `yaml:"db"`
}

// Manifest is a batch of parse and load jobs. Relative paths are resolved
// against the manifest's directory.
type Manifest struct {
	Variants []parser.Variant `yaml:"variants"`
	Jobs     []ParseJob       `yaml:"jobs"`
	Loads    []LoadJob        `yaml:"loads"`
}

// LoadManifest reads and checks the YAML manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := cleanenv.ReadConfig(path, &m); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.Variant == "" || j.Input == "" || j.Output == "" {
			return nil, fmt.Errorf("%w: job %d needs variant, input and output", ErrInvalidManifest, i+1)
		}
		j.Input = resolve(base, j.Input)
		j.Output = resolve(base, j.Output)
		j.EffectsOutput = resolve(base, j.EffectsOutput)
	}
	for i := range m.Loads {
		l := &m.Loads[i]
		if l.Profile == "" || l.Input == "" || l.DB == "" {
			return nil, fmt.Errorf("%w: load %d needs profile, input and db", ErrInvalidManifest, i+1)
		}
		l.Input = resolve(base, l.Input)
		if !isURL(l.DB) {
			l.DB = resolve(base, l.DB)
		}
	}
	return &m, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// isURL reports whether dsn is a database URL rather than a file path.
func isURL(dsn string) bool {
	return strings.Contains(dsn, "://")
}
