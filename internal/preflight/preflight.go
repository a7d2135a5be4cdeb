package preflight

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"coldlaw/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which checks RunAll performs.
type Options struct {
	// CheckIndex probes the upstream archive index.
	CheckIndex bool
	HTTPClient *http.Client
}

// RunAll executes all applicable preflight checks for the given config.
// Directories are created first so a fresh data dir does not fail.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if err := cfg.EnsureDirectories(); err != nil {
		results = append(results, Result{Name: "Data directories", Detail: err.Error()})
		return results
	}

	results = append(results,
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDirectoryAccess("Unpack directory", cfg.Paths.UnpackDir),
		CheckDirectoryAccess("Dataset directory", cfg.Paths.DatasetDir),
		CheckFreeSpace("Free space", cfg.Paths.DataDir, cfg.Preflight.MinFreeGiB),
	)

	if opts.CheckIndex {
		results = append(results, CheckIndexReachable(ctx, opts.HTTPClient, cfg.Source.IndexURL, cfg.Source.UserAgent))
	}
	return results
}

// Failed returns an error naming every failed check, or nil.
func Failed(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}
