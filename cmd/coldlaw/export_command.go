package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"coldlaw/internal/config"
	"coldlaw/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var datasetPath string
	var outDir string

	cmd := &cobra.Command{
		Use:       "export <json|txt>",
		Short:     "Write one file per dataset row",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.FormatJSON), string(export.FormatTXT)},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}

			source := cfg.DatasetPath()
			if p := strings.TrimSpace(datasetPath); p != "" {
				if source, err = config.ExpandPath(p); err != nil {
					return fmt.Errorf("resolve dataset path: %w", err)
				}
			}
			target := exportDir(cfg, format)
			if p := strings.TrimSpace(outDir); p != "" {
				if target, err = config.ExpandPath(p); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}

			stats, err := export.Run(cmd.Context(), format, source, target, export.Options{
				Limit:  limit,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d article(s) to %s\n", stats.Written, target)
			if stats.LimitReached {
				fmt.Fprintf(out, "Stopped at --limit %d\n", limit)
			}
			return nil
		},
	}
	cmd.AddCommand(newExportValidateCommand(ctx))
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Export at most N articles (0 exports all)")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset CSV to read (defaults to the canonical dataset)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the configured json_dir or txt_dir)")
	return cmd
}

func exportDir(cfg *config.Config, format export.Format) string {
	if format == export.FormatTXT {
		return cfg.Paths.TXTDir
	}
	return cfg.Paths.JSONDir
}

func newExportValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [glob]",
		Short: "Check exported JSON files (default <json_dir>/*/*.json) parse and carry every field",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			pattern := filepath.Join(cfg.Paths.JSONDir, "*", "*.json")
			if len(args) == 1 {
				if pattern, err = config.ExpandPath(strings.TrimSpace(args[0])); err != nil {
					return fmt.Errorf("resolve pattern: %w", err)
				}
			}

			report, err := export.ValidateJSON(cmd.Context(), pattern, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if report.Checked == 0 {
				fmt.Fprintln(out, "No files to check.")
				return nil
			}
			for _, bad := range report.Invalid {
				fmt.Fprintf(out, "%s is invalid: %s\n", bad.Path, bad.Reason)
			}
			fmt.Fprintf(out, "%d files checked, %d valid, %d invalid.\n", report.Checked, report.Valid, len(report.Invalid))
			if n := len(report.Invalid); n > 0 {
				return fmt.Errorf("%d exported JSON file(s) failed validation", n)
			}
			return nil
		},
	}
}
