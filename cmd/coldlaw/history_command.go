package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"coldlaw/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.LedgerPath()); os.IsNotExist(err) {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			book, err := ledger.Open(cmd.Context(), cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer book.Close()

			runs, err := book.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, historyJSON(runs))
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Command", "Status", "Started", "Duration", "Error"},
				historyRows(runs, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}

func historyRows(runs []ledger.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.Command,
			string(run.Status),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			duration,
			truncate(run.ErrorMessage, 60),
		})
	}
	return rows
}

type historyEntry struct {
	ID                string    `json:"id"`
	Command           string    `json:"command"`
	Status            string    `json:"status"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at,omitzero"`
	Error             string    `json:"error,omitempty"`
	TranslationDigest string    `json:"translation_digest,omitempty"`
}

func historyJSON(runs []ledger.Run) []historyEntry {
	entries := make([]historyEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, historyEntry{
			ID:                run.ID,
			Command:           run.Command,
			Status:            string(run.Status),
			StartedAt:         run.StartedAt,
			FinishedAt:        run.FinishedAt,
			Error:             run.ErrorMessage,
			TranslationDigest: run.TranslationDigest,
		})
	}
	return entries
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
