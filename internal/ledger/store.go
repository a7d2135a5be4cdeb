package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the ledger database.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun records a new running entry.
func (s *Store) StartRun(ctx context.Context, id, command string, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("run id is required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		id, command, StatusRunning, formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run. Stats are encoded as JSON.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt time.Time, outcome Outcome) error {
	var statsJSON any
	if outcome.Stats != nil {
		data, err := json.Marshal(outcome.Stats)
		if err != nil {
			return fmt.Errorf("marshal run stats: %w", err)
		}
		statsJSON = string(data)
	}
	var errMsg any
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, error_message = ?, stats_json = ?, translation_digest = ?
         WHERE id = ?`,
		outcome.Status, formatTime(finishedAt), errMsg, statsJSON, nullableString(outcome.TranslationDigest), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// RecordArchive upserts a fetched archive.
func (s *Store) RecordArchive(ctx context.Context, archive Archive) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO archives (name, bytes, fetched_at, run_id) VALUES (?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET bytes = excluded.bytes, fetched_at = excluded.fetched_at, run_id = excluded.run_id`,
		archive.Name, archive.Bytes, formatTime(archive.FetchedAt), nullableString(archive.RunID),
	)
	if err != nil {
		return fmt.Errorf("record archive: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns lists runs newest first. A non-positive limit returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Archives lists recorded archives by name.
func (s *Store) Archives(ctx context.Context) ([]Archive, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, bytes, fetched_at, run_id FROM archives ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var out []Archive
	for rows.Next() {
		var (
			archive    Archive
			fetchedRaw string
			runID      sql.NullString
		)
		if err := rows.Scan(&archive.Name, &archive.Bytes, &fetchedRaw, &runID); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		if t, err := parseTimeString(fetchedRaw); err == nil {
			archive.FetchedAt = t
		}
		archive.RunID = runID.String
		out = append(out, archive)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}
	return out, nil
}

// LatestDigest returns the translation digest of the most recent run that
// recorded one.
func (s *Store) LatestDigest(ctx context.Context) (string, error) {
	var digest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT translation_digest FROM runs WHERE translation_digest IS NOT NULL ORDER BY started_at DESC LIMIT 1`,
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest digest: %w", err)
	}
	return digest.String, nil
}

// MarkInterrupted flags runs left in the running state by a crashed process.
func (s *Store) MarkInterrupted(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE status = ?`,
		StatusFailed, formatTime(now), "interrupted", StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}
