package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"coldlaw/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var filter logs.Filter
	var lines int
	var follow bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show entries from the latest daily run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintf(out, "No logs in %s\n", cfg.Paths.LogDir)
				return nil
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			printLogLines(out, result.Lines, filter, raw)
			for follow {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset: result.Offset,
					Follow: true,
					Wait:   30 * time.Second,
				})
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				printLogLines(out, result.Lines, filter, raw)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show entries for this run id (prefix match)")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only show entries for this stage")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn or error")
	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print matching JSON lines unchanged")
	return cmd
}

func printLogLines(out io.Writer, lines []string, filter logs.Filter, raw bool) {
	for _, line := range lines {
		entry, ok := logs.ParseEntry(line)
		if !ok || !filter.Match(entry) {
			continue
		}
		if raw {
			fmt.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, entry.Format())
	}
}
