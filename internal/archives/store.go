package archives

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"coldlaw/internal/logging"
	"coldlaw/internal/retry"
)

// ArchiveExt is the suffix every LEGI release archive carries.
const ArchiveExt = ".tar.gz"

const partSuffix = ".part"

// ErrNoArchives is returned when the index page lists no archive file names.
var ErrNoArchives = errors.New("index lists no archives")

var archiveNamePattern = regexp.MustCompile(`[\w-]+\.tar\.gz`)

// Options configures a Store.
type Options struct {
	Dir         string
	IndexURL    string
	UserAgent   string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	HTTPClient  *http.Client
	Logger      *slog.Logger
	// Backoff overrides the default retry strategy.
	Backoff retry.Strategy
}

// Store lists, downloads, and enumerates archives in a single directory.
type Store struct {
	dir       string
	indexURL  *url.URL
	userAgent string
	token     string
	client    *http.Client
	executor  *retry.Executor
	logger    *slog.Logger
}

// FetchResult describes one Fetch call.
type FetchResult struct {
	Name    string
	Path    string
	Bytes   int64
	Skipped bool
}

// Report aggregates a Sync call.
type Report struct {
	Listed  int
	Fetched int
	Skipped int
	Bytes   int64
	Results []FetchResult
}

// New constructs a Store. IndexURL may be empty when only FetchURL and Local
// are used.
func New(opts Options) (*Store, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("archives: directory is required")
	}
	var index *url.URL
	if raw := strings.TrimSpace(opts.IndexURL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("archives: parse index url: %w", err)
		}
		index = parsed
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	strategy := opts.Backoff
	if strategy == nil {
		strategy = retry.NewExponentialBackoff(opts.MaxAttempts - 1)
	}
	logger := logging.NewComponentLogger(opts.Logger, "archives")
	executor := retry.NewExecutor(retry.HTTPClassifier{}, strategy).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logging.WarnWithContext(logger, "download failed; retrying", "download_retry",
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity to the archive host"),
			logging.String(logging.FieldImpact, "build waits before retrying the transfer"),
		)
	})
	return &Store{
		dir:       dir,
		indexURL:  index,
		userAgent: strings.TrimSpace(opts.UserAgent),
		token:     strings.TrimSpace(opts.Token),
		client:    client,
		executor:  executor,
		logger:    logger,
	}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// ListRemote fetches the index page and returns the unique archive names it
// mentions, in first-seen order.
func (s *Store) ListRemote(ctx context.Context) ([]string, error) {
	if s.indexURL == nil {
		return nil, errors.New("archives: index url not configured")
	}
	var body []byte
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		resp, err := s.get(ctx, s.indexURL.String())
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	names := ParseIndex(string(body))
	if len(names) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoArchives, s.indexURL)
	}
	return names, nil
}

// ParseIndex extracts unique archive file names from an index page in
// first-seen order.
func ParseIndex(page string) []string {
	matches := archiveNamePattern.FindAllString(page, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, name := range matches {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Fetch downloads name relative to the index URL unless it is already cached.
func (s *Store) Fetch(ctx context.Context, name string) (FetchResult, error) {
	if s.indexURL == nil {
		return FetchResult{}, errors.New("archives: index url not configured")
	}
	ref, err := url.Parse(name)
	if err != nil {
		return FetchResult{}, fmt.Errorf("archives: parse archive name %q: %w", name, err)
	}
	return s.FetchURL(ctx, s.indexURL.ResolveReference(ref).String(), name)
}

// FetchURL downloads rawURL into the cache as name unless a file of that name
// already exists. A cached file costs no network request.
func (s *Store) FetchURL(ctx context.Context, rawURL, name string) (FetchResult, error) {
	if name == "" || name != filepath.Base(name) {
		return FetchResult{}, fmt.Errorf("archives: invalid archive name %q", name)
	}
	dest := filepath.Join(s.dir, name)
	result := FetchResult{Name: name, Path: dest}
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		result.Skipped = true
		result.Bytes = info.Size()
		s.logger.Debug("archive cached; skipping download",
			logging.String(logging.FieldArchive, name),
			logging.String(logging.FieldEventType, "archive_cached"),
		)
		return result, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return result, fmt.Errorf("create archive dir: %w", err)
	}

	started := time.Now()
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		written, err := s.download(ctx, rawURL, dest)
		result.Bytes = written
		return err
	})
	if err != nil {
		return result, fmt.Errorf("fetch %s: %w", name, err)
	}
	s.logger.Info("archive fetched",
		logging.String(logging.FieldArchive, name),
		logging.Int64("archive_bytes", result.Bytes),
		logging.Duration("stage_duration", time.Since(started)),
		logging.String(logging.FieldEventType, "archive_fetched"),
	)
	return result, nil
}

// Sync lists the index and fetches every archive not yet cached. A failed
// fetch aborts the sync; archives already fetched stay in the cache.
func (s *Store) Sync(ctx context.Context) (Report, error) {
	names, err := s.ListRemote(ctx)
	if err != nil {
		return Report{}, err
	}
	report := Report{Listed: len(names), Results: make([]FetchResult, 0, len(names))}
	sampler := logging.NewProgressSampler(10)
	for idx, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := s.Fetch(ctx, name)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
		if result.Skipped {
			report.Skipped++
		} else {
			report.Fetched++
			report.Bytes += result.Bytes
		}
		percent := logging.Percent(idx+1, len(names))
		if sampler.ShouldLog(percent, "download") {
			s.logger.Info("download progress",
				logging.Float64(logging.FieldProgressPercent, percent),
				logging.Int("archives_fetched", report.Fetched),
				logging.Int("archives_skipped", report.Skipped),
			)
		}
	}
	return report, nil
}

// Local returns the cached archive paths in lexical order.
func (s *Store) Local() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArchiveExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func (s *Store) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &retry.StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (s *Store) download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := s.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	part := dest + partSuffix
	file, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	if copyErr == nil && resp.ContentLength >= 0 && written != resp.ContentLength {
		copyErr = io.ErrUnexpectedEOF
	}
	if copyErr == nil {
		copyErr = file.Sync()
	}
	if closeErr := file.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(part)
		return written, copyErr
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return written, fmt.Errorf("finalize %s: %w", dest, err)
	}
	return written, nil
}
