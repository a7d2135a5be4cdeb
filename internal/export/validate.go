package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"coldlaw/internal/logging"
)

// ErrNotJSONPattern is returned when a validation pattern does not end in .json.
var ErrNotJSONPattern = errors.New("pattern must target .json files")

// InvalidFile names a document that failed validation.
type InvalidFile struct {
	Path   string
	Reason string
}

// ValidationReport summarizes a ValidateJSON pass.
type ValidationReport struct {
	Checked int
	Valid   int
	Invalid []InvalidFile
}

// ValidateJSON checks every file matched by pattern: each must parse as a
// JSON object holding all of JSONKeys. Invalid files are reported, not
// returned as errors.
func ValidateJSON(ctx context.Context, pattern string, logger *slog.Logger) (ValidationReport, error) {
	var report ValidationReport
	if !strings.HasSuffix(pattern, ".json") {
		return report, fmt.Errorf("%w: %q", ErrNotJSONPattern, pattern)
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return report, fmt.Errorf("expand %q: %w", pattern, err)
	}
	logger = logging.NewComponentLogger(logger, "export")

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		if reason := checkJSONDocument(path); reason != "" {
			report.Invalid = append(report.Invalid, InvalidFile{Path: path, Reason: reason})
			logger.Debug("invalid json export", logging.String("export_path", path), logging.String("reason", reason))
			continue
		}
		report.Valid++
	}

	logger.Info("json validation complete",
		logging.String(logging.FieldEventType, "export_validated"),
		logging.Int("files_checked", report.Checked),
		logging.Int("files_invalid", len(report.Invalid)),
	)
	return report, nil
}

func checkJSONDocument(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return err.Error()
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "malformed JSON: " + err.Error()
	}
	var missing []string
	for _, key := range JSONKeys {
		if _, ok := doc[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "missing " + strings.Join(missing, ", ")
	}
	return ""
}
