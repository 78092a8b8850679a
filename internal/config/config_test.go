package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"microobj/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[interpreter]
max_steps = 500
interactive = true

[knowledge_base]
dsn = "file:kb.db"

[log]
verbose = true
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Interpreter.MaxSteps != 500 || !cfg.Interpreter.Interactive {
		t.Errorf("unexpected interpreter section %+v", cfg.Interpreter)
	}
	if !cfg.KnowledgeBase.Enabled || cfg.KnowledgeBase.DSN != "file:kb.db" {
		t.Errorf("unexpected knowledge base section %+v", cfg.KnowledgeBase)
	}
	if !cfg.Log.Verbose || cfg.Log.NoColor {
		t.Errorf("unexpected log section %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		content     string
		description string
	}{
		{"[interpreter\n", "syntax error"},
		{"[interpreter]\nmax_steps = -1\n", "negative step limit"},
		{"[interpreter]\nmax_step = 10\n", "misspelled key"},
	}

	for _, tt := range tests {
		if _, err := config.Load(writeConfig(t, tt.content)); err == nil {
			t.Errorf("%s: expected an error", tt.description)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := config.LoadOptional(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != config.Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	cfg, err = config.LoadOptional(writeConfig(t, "[knowledge_base]\nenabled = false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.KnowledgeBase.Enabled {
		t.Error("expected the knowledge base to be disabled")
	}
}
