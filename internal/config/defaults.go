package config

const (
	defaultConfigPath            = "~/.config/coldlaw/config.toml"
	defaultDataDir               = "~/.local/share/coldlaw"
	defaultIndexURL              = "https://echanges.dila.gouv.fr/OPENDATA/LEGI/"
	defaultRequestTimeoutSeconds = 600
	defaultMaxAttempts           = 3
	defaultUserAgent             = "coldlaw/dev"
	defaultTranslationsURL       = "https://huggingface.co/datasets/harvard-lil/cold-french-law/resolve/main/en_translations.tar.gz"
	defaultDatasetFileName       = "cold-french-law.csv"
	defaultMergedFileName        = "cold-french-law-en.csv"
	defaultMinFreeGiB            = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Derived directory names under the data directory.
const (
	archiveDirName = "legi_tar"
	unpackDirName  = "legi_unpacked"
	datasetDirName = "cold_csv"
	jsonDirName    = "cold_json"
	txtDirName     = "cold_txt"
	logDirName     = "logs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Source: Source{
			IndexURL:              defaultIndexURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			MaxAttempts:           defaultMaxAttempts,
			UserAgent:             defaultUserAgent,
		},
		Translations: Translations{
			Enabled: true,
			URL:     defaultTranslationsURL,
		},
		Dataset: Dataset{
			FileName:       defaultDatasetFileName,
			MergedFileName: defaultMergedFileName,
		},
		Preflight: Preflight{
			MinFreeGiB: defaultMinFreeGiB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
