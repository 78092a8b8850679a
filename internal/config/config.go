// Package config handles microobj.toml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the default configuration file, resolved against the
// working directory.
const FileName = "microobj.toml"

// Config represents a microobj.toml configuration.
type Config struct {
	Interpreter   Interpreter   `toml:"interpreter"`
	KnowledgeBase KnowledgeBase `toml:"knowledge_base"`
	Log           Log           `toml:"log"`
}

// Interpreter configures the step machine.
type Interpreter struct {
	MaxSteps    int  `toml:"max_steps"`   // 0 = unlimited
	Interactive bool `toml:"interactive"` // prompt at breakpoints
}

// KnowledgeBase configures the SQLite knowledge base.
type KnowledgeBase struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

// Log configures logging.
type Log struct {
	Verbose bool `toml:"verbose"`
	NoColor bool `toml:"no_color"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		KnowledgeBase: KnowledgeBase{Enabled: true, DSN: ":memory:"},
	}
}

// Load parses the file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	if cfg.Interpreter.MaxSteps < 0 {
		return cfg, fmt.Errorf("%s: max_steps must not be negative", path)
	}
	if cfg.KnowledgeBase.Enabled && cfg.KnowledgeBase.DSN == "" {
		cfg.KnowledgeBase.DSN = ":memory:"
	}

	return cfg, nil
}

// LoadOptional is Load, but a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
