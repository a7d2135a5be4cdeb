package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	if err := c.normalizeTranslations(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("COLDLAW_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		key   string
		value *string
		name  string
	}{
		{"paths.archive_dir", &c.Paths.ArchiveDir, archiveDirName},
		{"paths.unpack_dir", &c.Paths.UnpackDir, unpackDirName},
		{"paths.dataset_dir", &c.Paths.DatasetDir, datasetDirName},
		{"paths.json_dir", &c.Paths.JSONDir, jsonDirName},
		{"paths.txt_dir", &c.Paths.TXTDir, txtDirName},
		{"paths.log_dir", &c.Paths.LogDir, logDirName},
	}
	for _, d := range derived {
		*d.value = strings.TrimSpace(*d.value)
		if *d.value == "" {
			*d.value = filepath.Join(c.Paths.DataDir, d.name)
		}
		if *d.value, err = expandPath(*d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeSource() {
	if value, ok := os.LookupEnv("COLDLAW_INDEX_URL"); ok && strings.TrimSpace(value) != "" {
		c.Source.IndexURL = value
	}
	c.Source.IndexURL = strings.TrimSpace(c.Source.IndexURL)
	if c.Source.IndexURL == "" {
		c.Source.IndexURL = defaultIndexURL
	}
	if !strings.HasSuffix(c.Source.IndexURL, "/") {
		c.Source.IndexURL += "/"
	}
	if c.Source.RequestTimeoutSeconds <= 0 {
		c.Source.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Source.MaxAttempts <= 0 {
		c.Source.MaxAttempts = defaultMaxAttempts
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeTranslations() error {
	c.Translations.URL = strings.TrimSpace(c.Translations.URL)
	c.Translations.Path = strings.TrimSpace(c.Translations.Path)
	if c.Translations.Path != "" {
		var err error
		if c.Translations.Path, err = expandPath(c.Translations.Path); err != nil {
			return fmt.Errorf("translations.path: %w", err)
		}
	}
	c.Translations.Token = strings.TrimSpace(c.Translations.Token)
	if c.Translations.Token == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Translations.Token = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Translations.Token = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.FileName = strings.TrimSpace(c.Dataset.FileName)
	if c.Dataset.FileName == "" {
		c.Dataset.FileName = defaultDatasetFileName
	}
	c.Dataset.MergedFileName = strings.TrimSpace(c.Dataset.MergedFileName)
	if c.Dataset.MergedFileName == "" {
		c.Dataset.MergedFileName = defaultMergedFileName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
