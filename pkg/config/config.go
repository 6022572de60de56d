// Package config provides configuration management for nestscan.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/nestscan/config.toml)
//  3. Project config (.nestscan/config.toml or nestscan.toml), or the file
//     named by --config
//  4. Environment variables (NESTSCAN_*)
//  5. CLI flags (highest priority)
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/albertocavalcante/nestscan/pkg/comments"
	"github.com/albertocavalcante/nestscan/pkg/treesitter"
	"github.com/bmatcuk/doublestar/v4"
)

// LanguageAuto selects the reference grammar from the file extension.
const LanguageAuto = "auto"

// Config is the main configuration struct for nestscan.
type Config struct {
	// Scanner configures how the comment driver calls the scanner.
	Scanner ScannerConfig `toml:"scanner"`

	// Check configures the tree-sitter cross-check.
	Check CheckConfig `toml:"check"`

	// Watch configures the watch command.
	Watch WatchConfig `toml:"watch"`
}

// ScannerConfig holds scanner driver settings.
type ScannerConfig struct {
	// RespectValidSymbols makes the driver honor the valid-symbols mask
	// instead of matching unconditionally.
	RespectValidSymbols *bool `toml:"respect_valid_symbols"`

	// SkipLineComments makes "//" hide block comment openers.
	SkipLineComments *bool `toml:"skip_line_comments"`
}

// CheckConfig holds cross-check settings.
type CheckConfig struct {
	// Backend is the tree-sitter backend ("auto", "cgo", "wazero").
	Backend string `toml:"backend"`

	// Language is the reference grammar, or "auto" to pick by extension.
	Language string `toml:"language"`
}

// WatchConfig holds watch settings.
type WatchConfig struct {
	// DebounceMs is the quiet period before changed files are rescanned.
	DebounceMs int `toml:"debounce_ms"`

	// Extensions lists the file extensions to watch, with leading dots.
	Extensions []string `toml:"extensions"`

	// Exclude lists doublestar patterns, relative to the watched or
	// scanned directory, for files to leave out.
	Exclude []string `toml:"exclude"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	trueVal := true
	falseVal := false
	return &Config{
		Scanner: ScannerConfig{
			RespectValidSymbols: &falseVal,
			SkipLineComments:    &trueVal,
		},
		Check: CheckConfig{
			Backend:  string(treesitter.BackendAuto),
			Language: string(treesitter.Rust),
		},
		Watch: WatchConfig{
			DebounceMs: 300,
			Extensions: []string{".wgsl", ".wesl"},
		},
	}
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Scanner.RespectValidSymbols != nil {
		c.Scanner.RespectValidSymbols = other.Scanner.RespectValidSymbols
	}
	if other.Scanner.SkipLineComments != nil {
		c.Scanner.SkipLineComments = other.Scanner.SkipLineComments
	}

	if other.Check.Backend != "" {
		c.Check.Backend = other.Check.Backend
	}
	if other.Check.Language != "" {
		c.Check.Language = other.Check.Language
	}

	if other.Watch.DebounceMs > 0 {
		c.Watch.DebounceMs = other.Watch.DebounceMs
	}
	if len(other.Watch.Extensions) > 0 {
		c.Watch.Extensions = other.Watch.Extensions
	}
	if len(other.Watch.Exclude) > 0 {
		c.Watch.Exclude = other.Watch.Exclude
	}
}

// Validate checks values that the TOML decoder cannot.
func (c *Config) Validate() error {
	if _, err := treesitter.ParseBackendType(c.Check.Backend); err != nil {
		return fmt.Errorf("check.backend: %w", err)
	}
	if c.Check.Language != LanguageAuto {
		if _, ok := treesitter.ParseLanguage(c.Check.Language); !ok {
			return fmt.Errorf("check.language: unknown language %q", c.Check.Language)
		}
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms: must not be negative, got %d", c.Watch.DebounceMs)
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch.extensions: %q must start with a dot", ext)
		}
	}
	for _, pattern := range c.Watch.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("watch.exclude: invalid pattern %q", pattern)
		}
	}
	return nil
}

// ScanOptions converts the scanner settings into driver options.
func (c *Config) ScanOptions() comments.Options {
	return comments.Options{
		SkipLineComments: c.Scanner.SkipLineComments == nil || *c.Scanner.SkipLineComments,
		Guarded:          c.Scanner.RespectValidSymbols != nil && *c.Scanner.RespectValidSymbols,
	}
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// BackendType returns the configured backend, falling back to auto when the
// value is invalid. Call Validate to surface the error instead.
func (c *Config) BackendType() treesitter.BackendType {
	typ, err := treesitter.ParseBackendType(c.Check.Backend)
	if err != nil {
		return treesitter.BackendAuto
	}
	return typ
}
