package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"coldlaw/internal/retry"
)

const runColumns = "id, command, status, started_at, finished_at, error_message, stats_json, translation_digest"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errMsg      sql.NullString
		stats       sql.NullString
		digest      sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Command, &status, &startedRaw, &finishedRaw, &errMsg, &stats, &digest); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	if t, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = t
	}
	if finishedRaw.Valid {
		if t, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = t
		}
	}
	run.ErrorMessage = errMsg.String
	run.StatsJSON = stats.String
	run.TranslationDigest = digest.String
	return &run, nil
}

// busyClassifier retries only SQLITE_BUSY; every other error is final.
type busyClassifier struct{}

func (busyClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

var busyRetry = retry.NewExecutor(busyClassifier{}, retry.NewExponentialBackoff(
	busyRetryAttempts-1,
	retry.WithInitialDelay(busyRetryInitialBackoff),
	retry.WithMaxDelay(busyRetryMaxBackoff),
))

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := busyRetry.Execute(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
