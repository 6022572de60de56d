package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "nestscan.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".nestscan"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "nestscan"

// Environment variables read by Load.
const (
	EnvRespectValidSymbols = "NESTSCAN_SCANNER_RESPECT_VALID_SYMBOLS"
	EnvSkipLineComments    = "NESTSCAN_SCANNER_SKIP_LINE_COMMENTS"
	EnvCheckBackend        = "NESTSCAN_CHECK_BACKEND"
	EnvCheckLanguage       = "NESTSCAN_CHECK_LANGUAGE"
	EnvWatchDebounceMs     = "NESTSCAN_WATCH_DEBOUNCE_MS"
	EnvWatchExtensions     = "NESTSCAN_WATCH_EXTENSIONS"
	EnvWatchExclude        = "NESTSCAN_WATCH_EXCLUDE"
)

// Load loads configuration from all layers, searching for project config
// from the current directory. CLI flags are applied separately after Load
// returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
// Unreadable or malformed config files are skipped.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	applyEnvironmentVariables(cfg)

	return cfg
}

// LoadFile loads configuration with path in place of the project layer.
// Unlike the implicit layers, a missing or malformed file is an error.
func LoadFile(path string) (*Config, error) {
	fileCfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	cfg := NewConfig()
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}
	cfg.Merge(fileCfg)
	applyEnvironmentVariables(cfg)

	return cfg, nil
}

func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from dir
// and walking up to the workspace root.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(path); cfg != nil {
				return cfg
			}
		}

		if isWorkspaceRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isWorkspaceRoot checks if the directory is a repository or module root.
func isWorkspaceRoot(dir string) bool {
	markers := []string{".git", ".hg", "go.mod", "Cargo.toml"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func loadConfigFile(path string) *Config {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil
	}
	return cfg
}

func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// applyEnvironmentVariables applies NESTSCAN_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	applyBoolEnv(EnvRespectValidSymbols, &cfg.Scanner.RespectValidSymbols)
	applyBoolEnv(EnvSkipLineComments, &cfg.Scanner.SkipLineComments)

	if v := os.Getenv(EnvCheckBackend); v != "" {
		cfg.Check.Backend = v
	}
	if v := os.Getenv(EnvCheckLanguage); v != "" {
		cfg.Check.Language = v
	}

	if v := os.Getenv(EnvWatchDebounceMs); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Watch.DebounceMs = ms
		}
	}
	if v := os.Getenv(EnvWatchExtensions); v != "" {
		cfg.Watch.Extensions = splitAndTrim(v)
	}
	if v := os.Getenv(EnvWatchExclude); v != "" {
		cfg.Watch.Exclude = splitAndTrim(v)
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// applyBoolEnv applies a boolean environment variable to a pointer.
// Unrecognized values leave the target unchanged.
func applyBoolEnv(envVar string, target **bool) {
	v := strings.ToLower(os.Getenv(envVar))
	switch v {
	case "true", "1", "yes":
		t := true
		*target = &t
	case "false", "0", "no":
		f := false
		*target = &f
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given
// directory, in lookup order.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
