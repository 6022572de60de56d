package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/albertocavalcante/nestscan/pkg/treesitter"
)

// isolate points the user config dir at an empty temp dir so a developer's
// own config does not leak into tests.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, env := range []string{
		EnvRespectValidSymbols, EnvSkipLineComments, EnvCheckBackend,
		EnvCheckLanguage, EnvWatchDebounceMs, EnvWatchExtensions,
		EnvWatchExclude,
	} {
		t.Setenv(env, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	opts := cfg.ScanOptions()
	if !opts.SkipLineComments {
		t.Error("line comments should be skipped by default")
	}
	if opts.Guarded {
		t.Error("valid symbols should not be respected by default")
	}
	if cfg.Check.Backend != "auto" {
		t.Errorf("default backend should be 'auto', got %q", cfg.Check.Backend)
	}
	if cfg.Check.Language != "rust" {
		t.Errorf("default language should be 'rust', got %q", cfg.Check.Language)
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("default debounce should be 300ms, got %v", cfg.Debounce())
	}
	if len(cfg.Watch.Extensions) != 2 {
		t.Errorf("expected 2 default extensions, got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := NewConfig()
	trueVal := true
	other := &Config{
		Scanner: ScannerConfig{RespectValidSymbols: &trueVal},
		Check:   CheckConfig{Language: "scala"},
		Watch:   WatchConfig{Extensions: []string{".rs"}},
	}

	base.Merge(other)

	if !base.ScanOptions().Guarded {
		t.Error("respect_valid_symbols should be set after merge")
	}
	if !base.ScanOptions().SkipLineComments {
		t.Error("unset skip_line_comments should keep the default")
	}
	if base.Check.Language != "scala" {
		t.Errorf("language should be 'scala', got %q", base.Check.Language)
	}
	if base.Check.Backend != "auto" {
		t.Errorf("unset backend should keep 'auto', got %q", base.Check.Backend)
	}
	if len(base.Watch.Extensions) != 1 || base.Watch.Extensions[0] != ".rs" {
		t.Errorf("extensions should be replaced, got %v", base.Watch.Extensions)
	}

	base.Merge(nil)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"auto language", func(c *Config) { c.Check.Language = LanguageAuto }, false},
		{"wazero", func(c *Config) { c.Check.Backend = "wazero" }, false},
		{"bad backend", func(c *Config) { c.Check.Backend = "jvm" }, true},
		{"bad language", func(c *Config) { c.Check.Language = "wgsl" }, true},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, true},
		{"extension without dot", func(c *Config) { c.Watch.Extensions = []string{"wgsl"} }, true},
		{"exclude pattern", func(c *Config) { c.Watch.Exclude = []string{"**/generated/**"} }, false},
		{"bad exclude pattern", func(c *Config) { c.Watch.Exclude = []string{"src/[a"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackendType(t *testing.T) {
	cfg := NewConfig()
	cfg.Check.Backend = "CGO"
	if got := cfg.BackendType(); got != treesitter.BackendCGO {
		t.Errorf("BackendType() = %q, want cgo", got)
	}
	cfg.Check.Backend = "nope"
	if got := cfg.BackendType(); got != treesitter.BackendAuto {
		t.Errorf("BackendType() = %q, want auto for invalid values", got)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	writeFile(t, configPath, `
[scanner]
respect_valid_symbols = true
skip_line_comments = false

[check]
backend = "cgo"
language = "swift"

[watch]
debounce_ms = 50
extensions = [".wgsl"]
`)

	cfg := loadConfigFile(configPath)
	if cfg == nil {
		t.Fatal("loadConfigFile returned nil")
	}

	if cfg.Scanner.RespectValidSymbols == nil || !*cfg.Scanner.RespectValidSymbols {
		t.Error("respect_valid_symbols should be true")
	}
	if cfg.Scanner.SkipLineComments == nil || *cfg.Scanner.SkipLineComments {
		t.Error("skip_line_comments should be false")
	}
	if cfg.Check.Backend != "cgo" || cfg.Check.Language != "swift" {
		t.Errorf("check = %+v", cfg.Check)
	}
	if cfg.Watch.DebounceMs != 50 {
		t.Errorf("debounce_ms = %d, want 50", cfg.Watch.DebounceMs)
	}
}

func TestLoadConfigFileMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, configPath, "[scanner\nskip_line_comments = ")

	if cfg := loadConfigFile(configPath); cfg != nil {
		t.Error("malformed file should be skipped")
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("LoadFile should report a malformed file")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFile should report a missing file")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	isolate(t)
	cfg := NewConfig()

	t.Setenv(EnvRespectValidSymbols, "yes")
	t.Setenv(EnvSkipLineComments, "0")
	t.Setenv(EnvCheckBackend, "wazero")
	t.Setenv(EnvCheckLanguage, "c")
	t.Setenv(EnvWatchDebounceMs, "120")
	t.Setenv(EnvWatchExtensions, ".wgsl, .rs")
	t.Setenv(EnvWatchExclude, "gen/**")

	applyEnvironmentVariables(cfg)

	opts := cfg.ScanOptions()
	if !opts.Guarded {
		t.Error("respect_valid_symbols should be enabled via env var")
	}
	if opts.SkipLineComments {
		t.Error("skip_line_comments should be disabled via env var")
	}
	if cfg.Check.Backend != "wazero" || cfg.Check.Language != "c" {
		t.Errorf("check = %+v", cfg.Check)
	}
	if cfg.Debounce() != 120*time.Millisecond {
		t.Errorf("debounce = %v, want 120ms", cfg.Debounce())
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[1] != ".rs" {
		t.Errorf("extensions = %v", cfg.Watch.Extensions)
	}
	if len(cfg.Watch.Exclude) != 1 || cfg.Watch.Exclude[0] != "gen/**" {
		t.Errorf("exclude = %v", cfg.Watch.Exclude)
	}
}

func TestApplyEnvironmentVariablesInvalid(t *testing.T) {
	isolate(t)
	cfg := NewConfig()

	t.Setenv(EnvSkipLineComments, "maybe")
	t.Setenv(EnvWatchDebounceMs, "soon")

	applyEnvironmentVariables(cfg)

	if !cfg.ScanOptions().SkipLineComments {
		t.Error("unrecognized bool should leave the default")
	}
	if cfg.Watch.DebounceMs != 300 {
		t.Errorf("unparsable debounce should leave the default, got %d", cfg.Watch.DebounceMs)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{".wgsl,.wesl", []string{".wgsl", ".wesl"}},
		{" .wgsl , .wesl ", []string{".wgsl", ".wesl"}},
		{".rs", []string{".rs"}},
		{"", []string{}},
		{" , , ", []string{}},
	}

	for _, tt := range tests {
		result := splitAndTrim(tt.input)
		if len(result) != len(tt.expected) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
			continue
		}
		for i, v := range result {
			if v != tt.expected[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.expected[i])
			}
		}
	}
}

func TestProjectConfigSearch(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project", "subdir")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "project", ".git"), 0o755); err != nil {
		t.Fatalf("failed to create .git dir: %v", err)
	}

	writeFile(t, filepath.Join(tmpDir, "project", "nestscan.toml"), `
[check]
language = "kotlin"
`)

	cfg := loadProjectConfigFrom(projectDir)
	if cfg == nil {
		t.Fatal("loadProjectConfigFrom returned nil")
	}
	if cfg.Check.Language != "kotlin" {
		t.Errorf("language = %q, want kotlin", cfg.Check.Language)
	}
}

func TestProjectConfigDirWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "")
	writeFile(t, filepath.Join(dir, ConfigDirName, "config.toml"), "[check]\nlanguage = \"swift\"\n")
	writeFile(t, filepath.Join(dir, ConfigFileName), "[check]\nlanguage = \"scala\"\n")

	cfg := loadProjectConfigFrom(dir)
	if cfg == nil || cfg.Check.Language != "swift" {
		t.Errorf(".nestscan/config.toml should take precedence, got %+v", cfg)
	}
}

func TestProjectConfigStopsAtWorkspaceRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ConfigFileName), "[check]\nlanguage = \"scala\"\n")

	repo := filepath.Join(tmpDir, "repo")
	writeFile(t, filepath.Join(repo, "go.mod"), "module example.com/repo\n")

	if cfg := loadProjectConfigFrom(repo); cfg != nil {
		t.Errorf("search should stop at the workspace root, got %+v", cfg)
	}
}

func TestLoadFromPrecedence(t *testing.T) {
	isolate(t)

	writeFile(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), GlobalConfigDir, "config.toml"), `
[check]
backend = "cgo"
language = "swift"
`)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "")
	writeFile(t, filepath.Join(dir, ConfigFileName), `
[check]
language = "scala"
`)
	t.Setenv(EnvCheckBackend, "wazero")

	cfg := LoadFrom(dir)
	if cfg.Check.Language != "scala" {
		t.Errorf("project config should override global, got language %q", cfg.Check.Language)
	}
	if cfg.Check.Backend != "wazero" {
		t.Errorf("env should override global, got backend %q", cfg.Check.Backend)
	}
}

func TestLoadFileReplacesProjectLayer(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[watch]\ndebounce_ms = 10\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Watch.DebounceMs != 10 {
		t.Errorf("debounce_ms = %d, want 10", cfg.Watch.DebounceMs)
	}
	if cfg.Check.Language != "rust" {
		t.Errorf("unset values should keep defaults, got language %q", cfg.Check.Language)
	}
}

func TestWorkspaceRootDetection(t *testing.T) {
	for _, marker := range []string{".git", ".hg", "go.mod", "Cargo.toml"} {
		t.Run(marker, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, marker), "")
			if !isWorkspaceRoot(dir) {
				t.Errorf("directory with %s should be workspace root", marker)
			}
		})
	}

	if isWorkspaceRoot(t.TempDir()) {
		t.Error("empty directory should not be workspace root")
	}
}
