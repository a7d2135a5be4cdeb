package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"coldlaw/internal/dataset"
	"coldlaw/internal/fileutil"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
)

// Format names an export layout.
type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatTXT:
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or txt)", value)
	}
}

// Stats reports an export run.
type Stats struct {
	Read         int
	Written      int
	LimitReached bool
}

// Options controls an export run.
type Options struct {
	// Limit caps the number of records exported; zero means no limit.
	Limit  int
	Logger *slog.Logger
}

type writeFunc func(outDir string, rec legi.Record) (string, error)

// Run exports every record of the dataset at datasetPath into outDir.
func Run(ctx context.Context, format Format, datasetPath, outDir string, opts Options) (Stats, error) {
	var write writeFunc
	switch format {
	case FormatJSON:
		write = writeJSON
	case FormatTXT:
		write = writeTXT
	default:
		return Stats{}, fmt.Errorf("unknown export format %q", format)
	}
	logger := logging.NewComponentLogger(opts.Logger, "export")
	if opts.Limit < 0 {
		return Stats{}, fmt.Errorf("export limit must be >= 0, got %d", opts.Limit)
	}

	reader, err := dataset.Open(datasetPath)
	if err != nil {
		return Stats{}, err
	}
	defer reader.Close()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create export directory: %w", err)
	}

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if opts.Limit > 0 && stats.Written >= opts.Limit {
			stats.LimitReached = true
			logger.Info("export limit reached", logging.Int("limit", opts.Limit))
			break
		}
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Read++
		path, err := write(outDir, rec)
		if err != nil {
			return stats, fmt.Errorf("export %s: %w", rec.ArticleIdentifier, err)
		}
		stats.Written++
		logger.Debug("article exported",
			logging.String("article_identifier", rec.ArticleIdentifier),
			logging.String("export_path", path),
		)
	}

	logger.Info("export complete",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("export_format", string(format)),
		logging.Int("files_written", stats.Written),
		logging.String("export_dir", outDir),
	)
	return stats, nil
}

func writeFile(path string, data []byte) error {
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// safeIdentifier rejects identifiers that would escape the export tree.
func safeIdentifier(id string) error {
	if id == "" {
		return errors.New("empty article identifier")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid article identifier %q", id)
	}
	return nil
}
