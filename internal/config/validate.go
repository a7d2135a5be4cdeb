package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateTranslations(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if c.Preflight.MinFreeGiB < 0 {
		return errors.New("preflight.min_free_gib must be >= 0")
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateSource() error {
	if err := validateHTTPURL("source.index_url", c.Source.IndexURL); err != nil {
		return err
	}
	if c.Source.RequestTimeoutSeconds <= 0 {
		return errors.New("source.request_timeout_seconds must be positive")
	}
	if c.Source.MaxAttempts <= 0 {
		return errors.New("source.max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateTranslations() error {
	if !c.Translations.Enabled {
		return nil
	}
	if c.Translations.Path != "" {
		return nil
	}
	if c.Translations.URL == "" {
		return errors.New("translations.url or translations.path must be set when translations.enabled is true")
	}
	return validateHTTPURL("translations.url", c.Translations.URL)
}

func (c *Config) validateDataset() error {
	for key, name := range map[string]string{
		"dataset.file_name":        c.Dataset.FileName,
		"dataset.merged_file_name": c.Dataset.MergedFileName,
	} {
		if strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
			return fmt.Errorf("%s must be a file name, not a path", key)
		}
	}
	if c.Dataset.FileName == c.Dataset.MergedFileName {
		return errors.New("dataset.merged_file_name must differ from dataset.file_name")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}
