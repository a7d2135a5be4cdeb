package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"coldlaw/internal/dataset"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
)

// MergeStats reports join cardinality.
type MergeStats struct {
	Rows      int64
	Matched   int64
	Unmatched int64
}

// MergedHeader returns the canonical header followed by TranslatedColumns.
func MergedHeader() []string {
	header := append([]string(nil), legi.Fields...)
	return append(header, TranslatedColumns()...)
}

// Merge streams the canonical dataset at canonicalPath into outPath, adding
// the translated columns of every matching corpus entry. The output always
// has exactly one row per canonical row.
func Merge(ctx context.Context, canonicalPath string, corpus *Corpus, outPath string, opts dataset.Options, logger *slog.Logger) (MergeStats, error) {
	logger = logging.NewComponentLogger(logger, "translation")
	if corpus == nil {
		corpus = NewCorpus()
	}
	var stats MergeStats

	reader, err := dataset.Open(canonicalPath)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	writer, err := dataset.CreateWithHeader(outPath, MergedHeader(), opts)
	if err != nil {
		return stats, err
	}
	defer writer.Close()

	empty := make([]string, len(Fields)-1)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row, err := reader.NextRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		translated, ok := corpus.Lookup(row[0])
		if ok {
			stats.Matched++
		} else {
			translated = empty
			stats.Unmatched++
		}
		merged := make([]string, 0, len(row)+len(translated))
		merged = append(merged, row...)
		merged = append(merged, translated...)
		if err := writer.AppendRow(merged); err != nil {
			return stats, err
		}
		stats.Rows++
	}
	if err := writer.Close(); err != nil {
		return stats, fmt.Errorf("finalize merged dataset: %w", err)
	}

	logger.Info("translations merged",
		logging.String(logging.FieldEventType, "translations_merged"),
		logging.Int64("rows_total", stats.Rows),
		logging.Int64("rows_matched", stats.Matched),
		logging.Int64("rows_unmatched", stats.Unmatched),
		logging.String("merged_path", outPath),
	)
	if stats.Rows > 0 && stats.Matched == 0 {
		logging.WarnWithContext(logger, "no article matched the translation corpus", "translation_stale",
			logging.Int("translations_loaded", corpus.Len()),
			logging.String(logging.FieldErrorHint, "the corpus was likely built from an older LEGI snapshot"),
			logging.String(logging.FieldImpact, "merged dataset carries empty English columns"),
		)
	}
	return stats, nil
}
