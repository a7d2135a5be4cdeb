package testsupport

import (
	"path/filepath"
	"testing"

	"coldlaw/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a unique temp directory per test.
// Translations are disabled unless an option enables them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DataDir:    base,
		ArchiveDir: filepath.Join(base, "legi_tar"),
		UnpackDir:  filepath.Join(base, "legi_unpacked"),
		DatasetDir: filepath.Join(base, "cold_csv"),
		JSONDir:    filepath.Join(base, "cold_json"),
		TXTDir:     filepath.Join(base, "cold_txt"),
		LogDir:     filepath.Join(base, "logs"),
	}
	cfgVal.Source.IndexURL = "http://127.0.0.1:0/OPENDATA/LEGI/"
	cfgVal.Source.MaxAttempts = 1
	cfgVal.Translations.Enabled = false
	cfgVal.Preflight.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithIndexURL points the archive source at a test server.
func WithIndexURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.IndexURL = url
	}
}

// WithTranslationsURL enables translations fetched from url.
func WithTranslationsURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translations.Enabled = true
		b.cfg.Translations.URL = url
		b.cfg.Translations.Path = ""
	}
}

// WithTranslationsPath enables translations read from a local corpus file.
func WithTranslationsPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translations.Enabled = true
		b.cfg.Translations.Path = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
