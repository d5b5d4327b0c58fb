// Package config reads vscfl.yaml, the project-level configuration file
// loaded by the CLI; of its fields only VectorWidths is read, by the stdlib
// header generator.
// Grounded on internal/ext/config.go's funxy.yaml handling (yaml.v3
// unmarshal into a small struct, a FindConfig upward directory walk, a
// validate/setDefaults pair) but for a completely different domain: VSCFL's
// knobs are vector-width expansion, stdlib search paths, and a recursion
// cascade toggle, not Go-binding declarations.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceFileExt is VSCFL's recognized source file extension (spec.md §6).
const SourceFileExt = ".vscfl"

// DefaultVectorWidths are the built-in vector lane counts the stdlib
// generator cross-products against every numeric type family when no
// vscfl.yaml override is present (spec.md §6 "vector types").
var DefaultVectorWidths = []int{2, 3, 4, 8, 16}

// Config is the top-level vscfl.yaml configuration.
type Config struct {
	// VectorWidths overrides the lane counts used when generating the
	// builtin vector type family (Int2, Float4, ...). Defaults to
	// DefaultVectorWidths when omitted.
	VectorWidths []int `yaml:"vector_widths,omitempty"`

	// StdlibPaths is parsed from stdlib_paths but not read by any stage; the
	// prelude always comes from the embedded copy in internal/stdlib.
	StdlibPaths []string `yaml:"stdlib_paths,omitempty"`

	// StrictRecursionCascade is parsed from strict_recursion_cascade (false
	// by default) but not read by any stage; the evaluator's recursion
	// diagnostics are the same either way.
	StrictRecursionCascade bool `yaml:"strict_recursion_cascade,omitempty"`
}

// LoadConfig reads and parses a vscfl.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses vscfl.yaml content from bytes. path is used only for
// error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Default returns a Config with every knob at its built-in default, used
// when no vscfl.yaml is found.
func Default() *Config {
	return &Config{VectorWidths: append([]int(nil), DefaultVectorWidths...)}
}

func (c *Config) setDefaults() {
	if len(c.VectorWidths) == 0 {
		c.VectorWidths = append([]int(nil), DefaultVectorWidths...)
	}
}

// FindConfig searches for vscfl.yaml starting from dir and walking up to
// parent directories, mirroring the teacher's funxy.yaml discovery. Returns
// "" with a nil error if no config file is found anywhere up to the
// filesystem root.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, "vscfl.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		candidate = filepath.Join(dir, "vscfl.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadOrDefault loads vscfl.yaml found by walking up from dir, or returns
// Default() if none exists.
func LoadOrDefault(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}
