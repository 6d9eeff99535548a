// Package config handles the lorecheck run configuration (lorecheck.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/lorecheck/internal/atomicfile"
)

// FileName is the config file looked up at the project root.
const FileName = "lorecheck.toml"

const (
	// DefaultConcurrency is the validator batch size.
	DefaultConcurrency = 3
	// DefaultTimeout bounds each validator.
	DefaultTimeout = 30 * time.Second
	// DefaultReportDir is where --report writes artifacts, relative to the root.
	DefaultReportDir = ".lorecheck/reports"
)

// ErrInvalidConfig is wrapped by every config validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the lorecheck run configuration.
type Config struct {
	// ContentRoot is the directory holding the JSON documents, relative to
	// the project root. Empty means the project root itself.
	ContentRoot string `toml:"content_root"`

	// Include and Exclude are doublestar patterns applied to discovery.
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`

	// ReportDir is where report artifacts are written.
	ReportDir string `toml:"report_dir"`

	Run     RunConfig     `toml:"run"`
	Quality QualityConfig `toml:"quality"`
	UI      UIConfig      `toml:"ui"`

	// Validators holds per-validator settings keyed by validator name.
	Validators map[string]ValidatorConfig `toml:"validators"`

	timeout time.Duration
}

// RunConfig controls scheduling.
type RunConfig struct {
	Serial      bool   `toml:"serial"`
	Concurrency int    `toml:"concurrency"`
	Timeout     string `toml:"timeout"`
}

// QualityConfig controls the quality validator.
type QualityConfig struct {
	MinScore   float64 `toml:"min_score"`
	FuzzyUsage bool    `toml:"fuzzy_usage"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// ValidatorConfig toggles one validator. A nil Enabled means enabled.
type ValidatorConfig struct {
	Enabled *bool `toml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ReportDir: DefaultReportDir,
		Run: RunConfig{
			Concurrency: DefaultConcurrency,
			Timeout:     DefaultTimeout.String(),
		},
		timeout: DefaultTimeout,
	}
}

// ResolvePath returns the explicit path when given, otherwise the default
// location under root.
func ResolvePath(root, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return filepath.Join(root, FileName)
}

// Load loads root/lorecheck.toml, or the explicit path when non-empty.
// A missing default file yields the defaults; a missing explicit file is
// an error.
func Load(root, explicit string) (*Config, error) {
	path := ResolvePath(root, explicit)
	if explicit == "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path. Unset keys keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Normalize clamps the concurrency and parses the timeout. Call it again
// after overriding fields from flags.
func (c *Config) Normalize() error {
	if c.Run.Concurrency < 1 {
		c.Run.Concurrency = 1
	}
	if strings.TrimSpace(c.Run.Timeout) == "" {
		c.timeout = 0
		return nil
	}
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return fmt.Errorf("%w: run.timeout %q: %v", ErrInvalidConfig, c.Run.Timeout, err)
	}
	if d < 0 {
		return fmt.Errorf("%w: run.timeout %q is negative", ErrInvalidConfig, c.Run.Timeout)
	}
	c.timeout = d
	return nil
}

// Timeout returns the parsed per-validator timeout. Zero disables it.
func (c *Config) Timeout() time.Duration {
	return c.timeout
}

// EnabledValidators returns the explicit enable flags by validator name.
func (c *Config) EnabledValidators() map[string]bool {
	out := make(map[string]bool)
	for name, v := range c.Validators {
		if v.Enabled != nil {
			out[name] = *v.Enabled
		}
	}
	return out
}

// ContentDir returns the absolute content directory for a project root.
func (c *Config) ContentDir(root string) string {
	if c.ContentRoot == "" {
		return root
	}
	if filepath.IsAbs(c.ContentRoot) {
		return c.ContentRoot
	}
	return filepath.Join(root, c.ContentRoot)
}

// ReportPath returns the absolute report directory for a project root.
func (c *Config) ReportPath(root string) string {
	dir := c.ReportDir
	if dir == "" {
		dir = DefaultReportDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// CreateDefault writes a commented default config under root. It never
// overwrites an existing file.
func CreateDefault(root string) (string, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}

	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

const defaultConfig = `# lorecheck configuration
#
# Validation rules live in lorecheck.yaml; this file controls how runs behave.

# Directory holding the JSON documents, relative to this file.
# content_root = "content"

# Discovery patterns (doublestar syntax).
# include = ["**/*.json"]
# exclude = ["drafts/**"]

# Where --report writes timestamped artifacts.
# report_dir = ".lorecheck/reports"

[run]
# serial = false
concurrency = 3
timeout = "30s"

[quality]
# Fail the quality validator when a type scores below this (0 disables).
min_score = 0.0
# Also count free-text mentions of ids and titles when ranking.
fuzzy_usage = false

# [ui]
# accent = "39"
# code_theme = "monokai"

# [validators.redundancy]
# enabled = false
`
