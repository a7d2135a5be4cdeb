package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Empty stage directories are derived
// from DataDir during normalization.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	ArchiveDir string `toml:"archive_dir"`
	UnpackDir  string `toml:"unpack_dir"`
	DatasetDir string `toml:"dataset_dir"`
	JSONDir    string `toml:"json_dir"`
	TXTDir     string `toml:"txt_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source contains configuration for the upstream LEGI archive index.
type Source struct {
	IndexURL              string `toml:"index_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MaxAttempts           int    `toml:"max_attempts"`
	UserAgent             string `toml:"user_agent"`
}

// Translations contains configuration for the English translation corpus.
type Translations struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Path    string `toml:"path"`
	Token   string `toml:"token"`
}

// Dataset contains configuration for the canonical and merged CSV outputs.
type Dataset struct {
	FileName       string `toml:"file_name"`
	MergedFileName string `toml:"merged_file_name"`
	SyncWrites     bool   `toml:"sync_writes"`
}

// Preflight contains thresholds checked before a build starts.
type Preflight struct {
	MinFreeGiB int `toml:"min_free_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for coldlaw.
//
// Configuration sections by subsystem:
//   - Paths: data directory and per-stage directories
//   - Source: LEGI index location and download behaviour
//   - Translations: English corpus location and toggle
//   - Dataset: CSV output names and durability
//   - Preflight: free-space floor checked before a build
//   - Logging: log format, level, and daily log retention
type Config struct {
	Paths        Paths        `toml:"paths"`
	Source       Source       `toml:"source"`
	Translations Translations `toml:"translations"`
	Dataset      Dataset      `toml:"dataset"`
	Preflight    Preflight    `toml:"preflight"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("coldlaw.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every build stage writes into.
// Export directories are created lazily by the exporters.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ArchiveDir, c.Paths.UnpackDir, c.Paths.DatasetDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatasetPath returns the canonical CSV location.
func (c *Config) DatasetPath() string {
	return filepath.Join(c.Paths.DatasetDir, c.Dataset.FileName)
}

// MergedDatasetPath returns the location of the CSV carrying _en columns.
func (c *Config) MergedDatasetPath() string {
	return filepath.Join(c.Paths.DatasetDir, c.Dataset.MergedFileName)
}

// TranslationCacheDir holds the downloaded translation corpus.
func (c *Config) TranslationCacheDir() string {
	return filepath.Join(c.Paths.DataDir, "translations")
}

// LedgerPath returns the SQLite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath returns the workspace lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, ".coldlaw.lock")
}

// RequestTimeout returns the per-request download timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	encoder := toml.NewEncoder(&b)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
