package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing default file yields defaults", func(t *testing.T) {
		cfg, err := Load(t.TempDir(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Run.Concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, cfg.Run.Concurrency)
		}
		if cfg.Timeout() != DefaultTimeout {
			t.Errorf("expected timeout %s, got %s", DefaultTimeout, cfg.Timeout())
		}
		if cfg.ReportDir != DefaultReportDir {
			t.Errorf("expected report dir %q, got %q", DefaultReportDir, cfg.ReportDir)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := Load(dir, filepath.Join(dir, "nope.toml")); err == nil {
			t.Fatal("expected error for missing explicit config")
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, `
content_root = "content"
exclude = ["drafts/**"]

[run]
serial = true
timeout = "5s"

[quality]
min_score = 60.0
fuzzy_usage = true

[ui]
accent = "#ff8800"

[validators.redundancy]
enabled = false
`)
		cfg, err := Load(dir, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Run.Serial {
			t.Error("expected serial run")
		}
		if cfg.Run.Concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency to survive, got %d", cfg.Run.Concurrency)
		}
		if cfg.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %s", cfg.Timeout())
		}
		if cfg.Quality.MinScore != 60 || !cfg.Quality.FuzzyUsage {
			t.Errorf("unexpected quality config: %+v", cfg.Quality)
		}
		if cfg.ContentDir(dir) != filepath.Join(dir, "content") {
			t.Errorf("unexpected content dir %q", cfg.ContentDir(dir))
		}
		enabled := cfg.EnabledValidators()
		if v, ok := enabled["redundancy"]; !ok || v {
			t.Errorf("expected redundancy disabled, got %v", enabled)
		}
		if _, ok := enabled["quality"]; ok {
			t.Error("validators without a flag should not appear")
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "[run]\nparallel = 4\n")
		_, err := Load(dir, "")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "[run\n")
		if _, err := Load(dir, ""); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name            string
		concurrency     int
		timeout         string
		wantConcurrency int
		wantTimeout     time.Duration
		wantErr         bool
	}{
		{name: "clamps zero concurrency", concurrency: 0, timeout: "1s", wantConcurrency: 1, wantTimeout: time.Second},
		{name: "clamps negative concurrency", concurrency: -4, timeout: "1s", wantConcurrency: 1, wantTimeout: time.Second},
		{name: "empty timeout disables", concurrency: 2, timeout: "", wantConcurrency: 2, wantTimeout: 0},
		{name: "unparsable timeout", concurrency: 2, timeout: "soon", wantErr: true},
		{name: "negative timeout", concurrency: 2, timeout: "-1s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Run.Concurrency = tt.concurrency
			cfg.Run.Timeout = tt.timeout

			err := cfg.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Run.Concurrency != tt.wantConcurrency {
				t.Errorf("expected concurrency %d, got %d", tt.wantConcurrency, cfg.Run.Concurrency)
			}
			if cfg.Timeout() != tt.wantTimeout {
				t.Errorf("expected timeout %s, got %s", tt.wantTimeout, cfg.Timeout())
			}
		})
	}
}

func TestCreateDefault(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateDefault(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("default config should load: %v", err)
	}
	if cfg.Run.Concurrency != DefaultConcurrency || cfg.Timeout() != DefaultTimeout {
		t.Errorf("unexpected defaults: %+v", cfg.Run)
	}

	if _, err := CreateDefault(dir); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestReportPath(t *testing.T) {
	cfg := Default()
	if got := cfg.ReportPath("/proj"); got != filepath.Join("/proj", DefaultReportDir) {
		t.Errorf("unexpected report path %q", got)
	}
	cfg.ReportDir = "/abs/reports"
	if got := cfg.ReportPath("/proj"); got != "/abs/reports" {
		t.Errorf("expected absolute report dir kept, got %q", got)
	}
}
