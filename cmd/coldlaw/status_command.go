package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"coldlaw/internal/config"
	"coldlaw/internal/ledger"
	"coldlaw/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show preflight checks, outputs and the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{CheckIndex: !offline})
			writeLines(out, renderSectionHeader("Preflight", colorize))
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			writeLines(out, renderSectionHeader("Outputs", colorize))
			fmt.Fprintln(out, renderFileStatus("Dataset", cfg.DatasetPath(), colorize))
			if cfg.Translations.Enabled {
				fmt.Fprintln(out, renderFileStatus("Merged dataset", cfg.MergedDatasetPath(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Merged dataset", statusInfo, "translations disabled", colorize))
			}

			fmt.Fprintln(out)
			writeLines(out, renderSectionHeader("Ledger", colorize))
			for _, line := range lastRunLines(cmd.Context(), cfg, colorize) {
				fmt.Fprintln(out, line)
			}
			return preflight.Failed(results)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the upstream index reachability check")
	return cmd
}

func renderFileStatus(label, path string, colorize bool) string {
	info, err := os.Stat(path)
	if err != nil {
		return renderStatusLine(label, statusWarn, "missing: "+path, colorize)
	}
	detail := fmt.Sprintf("%s, %s, updated %s", path, humanize.IBytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	return renderStatusLine(label, statusOK, detail, colorize)
}

func lastRunLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	if _, err := os.Stat(cfg.LedgerPath()); os.IsNotExist(err) {
		return []string{renderStatusLine("Last run", statusInfo, "none recorded", colorize)}
	}
	book, err := ledger.Open(ctx, cfg.LedgerPath())
	if err != nil {
		return []string{renderStatusLine("Ledger", statusError, err.Error(), colorize)}
	}
	defer book.Close()

	runs, err := book.RecentRuns(ctx, 1)
	if err != nil {
		return []string{renderStatusLine("Ledger", statusError, err.Error(), colorize)}
	}
	if len(runs) == 0 {
		return []string{renderStatusLine("Last run", statusInfo, "none recorded", colorize)}
	}
	run := runs[0]
	kind := statusOK
	switch run.Status {
	case ledger.StatusFailed:
		kind = statusError
	case ledger.StatusCancelled, ledger.StatusRunning:
		kind = statusWarn
	}
	detail := fmt.Sprintf("%s %s %s", run.Command, run.Status, humanize.RelTime(run.StartedAt, time.Now(), "ago", "from now"))
	lines := []string{renderStatusLine("Last run", kind, detail, colorize)}
	if run.ErrorMessage != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, truncate(run.ErrorMessage, 80), colorize))
	}
	if digest, err := book.LatestDigest(ctx); err == nil && digest != "" {
		lines = append(lines, renderStatusLine("Corpus digest", statusInfo, shortDigest(digest), colorize))
	}
	return lines
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
