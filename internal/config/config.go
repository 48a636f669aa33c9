// Package config loads the VM's tunables from an optional YAML file plus
// environment variable overrides, in that priority order (environment wins).
// It is grounded on the teacher's indirect dependency on caarlos0/env/v6 and
// gopkg.in/yaml.v3 (pulled in transitively through github.com/mna/mainer),
// promoted here to a direct, exercised dependency since the teacher itself
// has no standalone configuration layer beyond mainer's flag parsing.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds the VM limits a stako invocation runs with. Zero values mean
// "use the machine package's own defaults".
type Config struct {
	MaxSteps  int  `yaml:"max_steps" env:"STAKO_MAX_STEPS"`
	StackSize int  `yaml:"stack_size" env:"STAKO_STACK_SIZE"`
	NoColor   bool `yaml:"no_color" env:"STAKO_NO_COLOR"`
}

// Load builds a Config starting from zero values, applying path's YAML
// contents if path is non-empty and the file exists, then applying any
// STAKO_* environment variables on top. A missing file at path is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("STAKO_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// no file to load, environment-only config
		case err != nil:
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: reading environment: %w", err)
	}
	return cfg, nil
}
