package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"coldlaw/internal/config"
	"coldlaw/internal/ledger"
	"coldlaw/internal/logging"
	"coldlaw/internal/preflight"
)

// ErrLocked is returned when another run holds the workspace lock.
var ErrLocked = errors.New("another coldlaw run holds the workspace lock")

// Options selects the stages of a run.
type Options struct {
	// Command is recorded in the ledger, e.g. "build" or "extract".
	Command string
	Skip    map[Stage]bool
}

// Only returns options that run a single stage.
func Only(stage Stage) Options {
	skip := make(map[Stage]bool, len(Stages))
	for _, s := range Stages {
		skip[s] = s != stage
	}
	return Options{Command: string(stage), Skip: skip}
}

// Runner executes build stages against one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithHTTPClient overrides the client used for downloads and preflight.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Runner) {
		r.client = client
	}
}

// WithClock overrides the clock used for ledger timestamps and log retention.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Runner.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every stage not skipped by opts. The returned stats cover
// the stages that completed even when err is non-nil.
func (r *Runner) Run(ctx context.Context, opts Options) (Stats, error) {
	if r.cfg == nil {
		return Stats{}, errors.New("pipeline requires a config")
	}
	if opts.Command == "" {
		opts.Command = "build"
	}
	runID := uuid.NewString()
	stats := Stats{RunID: runID}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return stats, err
	}
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return stats, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return stats, fmt.Errorf("%w (%s)", ErrLocked, r.cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release workspace lock", logging.Error(err))
		}
	}()

	logging.PruneLogs(logger, r.cfg.Paths.LogDir, logging.LogFilePattern, r.cfg.Logging.RetentionDays, r.now())

	results := preflight.RunAll(ctx, r.cfg, preflight.Options{
		CheckIndex: !opts.Skip[StageDownload],
		HTTPClient: r.client,
	})
	for _, result := range results {
		logger.Debug("preflight check",
			logging.String("check", result.Name),
			logging.Bool("passed", result.Passed),
			logging.String("detail", result.Detail),
		)
	}
	if err := preflight.Failed(results); err != nil {
		logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the reported paths or free disk space, then rerun"),
		)
		return stats, err
	}

	book, err := ledger.Open(ctx, r.cfg.LedgerPath())
	if err != nil {
		return stats, err
	}
	defer book.Close()
	if n, err := book.MarkInterrupted(ctx, r.now()); err != nil {
		return stats, err
	} else if n > 0 {
		logging.WarnWithContext(logger, "previous runs did not finish", "runs_interrupted",
			logging.Int64("interrupted_runs", n),
			logging.String(logging.FieldImpact, "their ledger entries were marked failed"),
		)
	}
	if err := book.StartRun(ctx, runID, opts.Command, r.now()); err != nil {
		return stats, err
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("command", opts.Command),
	)
	started := r.now()
	runErr := r.runStages(ctx, logger, book, opts, &stats)

	outcome := ledger.Outcome{
		Status:            ledger.StatusSucceeded,
		Err:               runErr,
		Stats:             stats,
		TranslationDigest: stats.Translate.Digest,
	}
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		outcome.Status = ledger.StatusCancelled
	default:
		outcome.Status = ledger.StatusFailed
	}
	// The ledger write must survive a cancelled run context.
	if err := book.FinishRun(context.WithoutCancel(ctx), runID, r.now(), outcome); err != nil {
		logger.Warn("failed to record run outcome", logging.Error(err))
	}

	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			logging.ErrorWithContext(logger, "run failed", "run_failed", logging.Error(runErr))
		}
		return stats, runErr
	}
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("stage_duration", r.now().Sub(started)),
		logging.Int("rows_written", stats.Extract.Written),
	)
	return stats, nil
}

func (r *Runner) runStages(ctx context.Context, logger *slog.Logger, book *ledger.Store, opts Options, stats *Stats) error {
	for _, stage := range Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.Skip[stage] {
			stats.Skipped = append(stats.Skipped, stage)
			logger.Debug("stage skipped", logging.String(logging.FieldStage, string(stage)))
			continue
		}
		stageCtx := logging.WithStage(ctx, string(stage))
		stageLogger := logging.WithContext(stageCtx, r.logger)
		stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
		started := r.now()

		var err error
		switch stage {
		case StageDownload:
			err = r.download(stageCtx, stageLogger, book, stats)
		case StageUnpack:
			err = r.unpack(stageCtx, stageLogger, stats)
		case StageExtract:
			err = r.extract(stageCtx, stageLogger, stats)
		case StageTranslate:
			err = r.translate(stageCtx, stageLogger, book, stats)
		}
		if err != nil {
			return fmt.Errorf("%s stage: %w", stage, err)
		}
		took := r.now().Sub(started)
		stats.ran(stage, took)
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", took),
		)
	}
	return nil
}
