package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"coldlaw/internal/archives"
	"coldlaw/internal/dataset"
	"coldlaw/internal/extract"
	"coldlaw/internal/ledger"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
	"coldlaw/internal/translation"
	"coldlaw/internal/unpack"
)

func (r *Runner) archiveStore(logger *slog.Logger) (*archives.Store, error) {
	return archives.New(archives.Options{
		Dir:         r.cfg.Paths.ArchiveDir,
		IndexURL:    r.cfg.Source.IndexURL,
		UserAgent:   r.cfg.Source.UserAgent,
		Timeout:     r.cfg.RequestTimeout(),
		MaxAttempts: r.cfg.Source.MaxAttempts,
		HTTPClient:  r.client,
		Logger:      logger,
	})
}

func (r *Runner) download(ctx context.Context, logger *slog.Logger, book *ledger.Store, stats *Stats) error {
	store, err := r.archiveStore(logger)
	if err != nil {
		return err
	}
	report, err := store.Sync(ctx)
	stats.Download = DownloadStats{
		Listed:  report.Listed,
		Fetched: report.Fetched,
		Skipped: report.Skipped,
		Bytes:   report.Bytes,
	}
	runID, _ := logging.RunIDFromContext(ctx)
	for _, result := range report.Results {
		if result.Skipped {
			continue
		}
		if recErr := book.RecordArchive(ctx, ledger.Archive{
			Name:      result.Name,
			Bytes:     result.Bytes,
			FetchedAt: r.now(),
			RunID:     runID,
		}); recErr != nil {
			logger.Warn("failed to record fetched archive", logging.Error(recErr))
		}
	}
	if err != nil {
		return err
	}
	logger.Info("archives synchronized",
		logging.String(logging.FieldEventType, "archives_synced"),
		logging.Int("archives_listed", report.Listed),
		logging.Int("archives_fetched", report.Fetched),
		logging.Int("archives_skipped", report.Skipped),
		logging.Int64("archive_bytes", report.Bytes),
	)
	return nil
}

func (r *Runner) unpack(ctx context.Context, logger *slog.Logger, stats *Stats) error {
	store, err := r.archiveStore(logger)
	if err != nil {
		return err
	}
	paths, err := store.Local()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w in %s; run the download stage first", archives.ErrNoArchives, store.Dir())
	}

	acc := unpack.NewAccumulator()
	unpacker := unpack.New(r.cfg.Paths.UnpackDir, logger)
	unpackStats, err := unpacker.UnpackAll(ctx, paths, acc)
	stats.Unpack.addUnpack(unpackStats)
	if err != nil {
		return err
	}

	obsolete := acc.Finalize()
	pruneStats, err := unpack.Prune(ctx, unpacker.Root(), obsolete)
	stats.Unpack.Marked = pruneStats.Marked
	stats.Unpack.Deleted = pruneStats.Deleted
	if err != nil {
		return err
	}
	logger.Info("fragments unpacked",
		logging.String(logging.FieldEventType, "archive_unpacked"),
		logging.Int("archives_unpacked", unpackStats.Archives),
		logging.Int("fragments_written", unpackStats.FragmentsWritten),
		logging.Int("obsolete_ids", obsolete.Len()),
		logging.Int("fragments_deleted", pruneStats.Deleted),
	)
	return nil
}

func (r *Runner) extract(ctx context.Context, logger *slog.Logger, stats *Stats) error {
	paths, err := unpack.ListFragments(r.cfg.Paths.UnpackDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logging.WarnWithContext(logger, "no fragments to extract", "extract_empty",
			logging.String("unpack_dir", r.cfg.Paths.UnpackDir),
			logging.String(logging.FieldErrorHint, "run the unpack stage first"),
			logging.String(logging.FieldImpact, "dataset will only contain a header"),
		)
	}

	writer, err := dataset.Create(r.cfg.DatasetPath(), dataset.Options{SyncWrites: r.cfg.Dataset.SyncWrites})
	if err != nil {
		return err
	}
	defer writer.Close()

	extractor := extract.New()
	sampler := logging.NewProgressSampler(5)
	for idx, fragmentPath := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := extractor.ExtractFile(fragmentPath)
		if err != nil {
			return fmt.Errorf("%s: %w", fragmentPath, err)
		}
		stats.Extract.Processed++
		stats.Extract.DroppedContent += result.DroppedContent
		if result.DroppedContent > 0 {
			logger.Debug("content node dropped",
				logging.String("fragment_path", fragmentPath),
				logging.Int("dropped_content", result.DroppedContent),
			)
		}
		if result.Skipped {
			stats.Extract.Skipped++
		} else {
			if want := legi.IdentifierFromPath(fragmentPath); want != result.Record.ArticleIdentifier {
				stats.Extract.IDMismatches++
				logger.Debug("fragment identifier differs from file name",
					logging.String("fragment_path", fragmentPath),
					logging.String("article_identifier", result.Record.ArticleIdentifier),
				)
			}
			if err := writer.Append(result.Record); err != nil {
				return err
			}
			stats.Extract.Written++
		}
		percent := logging.Percent(idx+1, len(paths))
		if sampler.ShouldLog(percent, "extract") {
			logger.Info("extract progress",
				logging.Float64(logging.FieldProgressPercent, percent),
				logging.Int64("rows_written", writer.Rows()),
			)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	stats.output("dataset", writer.Path())
	if stats.Extract.IDMismatches > 0 {
		logging.WarnWithContext(logger, "fragments whose identifier differs from their file name", "extract_id_mismatch",
			logging.Int("id_mismatches", stats.Extract.IDMismatches),
			logging.String(logging.FieldImpact, "rows keep the identifier found inside the fragment"),
		)
	}
	logger.Info("dataset written",
		logging.String(logging.FieldEventType, "dataset_written"),
		logging.Int("fragments_processed", stats.Extract.Processed),
		logging.Int("rows_skipped", stats.Extract.Skipped),
		logging.Int("rows_written", stats.Extract.Written),
		logging.Int("dropped_content", stats.Extract.DroppedContent),
		logging.String("dataset_path", writer.Path()),
	)
	return nil
}

func (r *Runner) translate(ctx context.Context, logger *slog.Logger, book *ledger.Store, stats *Stats) error {
	if !r.cfg.Translations.Enabled {
		logger.Info("translations disabled; skipping merge",
			logging.String(logging.FieldEventType, "translations_disabled"),
		)
		return nil
	}
	corpusPath, err := r.corpusPath(ctx, logger)
	if err != nil {
		return err
	}
	corpus, err := translation.LoadCorpus(ctx, corpusPath, logger)
	if err != nil {
		return err
	}
	stats.Translate.setCorpus(corpus.Stats())
	stats.Translate.Digest = corpus.Digest()

	previous, err := book.LatestDigest(ctx)
	if err != nil {
		return err
	}
	if previous != "" && previous != corpus.Digest() {
		stats.Translate.Changed = true
		logger.Info("translation corpus changed since last merge",
			logging.String("previous_digest", previous),
			logging.String("corpus_digest", corpus.Digest()),
		)
	}

	merged := r.cfg.MergedDatasetPath()
	mergeStats, err := translation.Merge(ctx, r.cfg.DatasetPath(), corpus, merged,
		dataset.Options{SyncWrites: r.cfg.Dataset.SyncWrites}, logger)
	stats.Translate.Rows = mergeStats.Rows
	stats.Translate.Matched = mergeStats.Matched
	stats.Translate.Unmatched = mergeStats.Unmatched
	if err != nil {
		return err
	}
	stats.output("merged", merged)
	return nil
}

// corpusPath returns the local corpus archive, downloading it into the
// translation cache when no local path is configured.
func (r *Runner) corpusPath(ctx context.Context, logger *slog.Logger) (string, error) {
	if p := strings.TrimSpace(r.cfg.Translations.Path); p != "" {
		return p, nil
	}
	parsed, err := url.Parse(r.cfg.Translations.URL)
	if err != nil {
		return "", fmt.Errorf("parse translations url: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", errors.New("translations url has no file name")
	}
	store, err := archives.New(archives.Options{
		Dir:         r.cfg.TranslationCacheDir(),
		UserAgent:   r.cfg.Source.UserAgent,
		Token:       r.cfg.Translations.Token,
		Timeout:     r.cfg.RequestTimeout(),
		MaxAttempts: r.cfg.Source.MaxAttempts,
		HTTPClient:  r.client,
		Logger:      logger,
	})
	if err != nil {
		return "", err
	}
	result, err := store.FetchURL(ctx, r.cfg.Translations.URL, name)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}
