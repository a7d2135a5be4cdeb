package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"coldlaw/internal/pipeline"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	skip := make(map[pipeline.Stage]*bool, len(pipeline.Stages))
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run download, unpack, extract and translate in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Command: "build", Skip: make(map[pipeline.Stage]bool)}
			for stage, flag := range skip {
				opts.Skip[stage] = *flag
			}
			return runPipeline(cmd, ctx, opts, jsonOut)
		},
	}
	for _, stage := range pipeline.Stages {
		skip[stage] = cmd.Flags().Bool("skip-"+string(stage), false, fmt.Sprintf("Skip the %s stage", stage))
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print run statistics as JSON")
	return cmd
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	short := map[pipeline.Stage]string{
		pipeline.StageDownload:  "Fetch LEGI archives not yet cached",
		pipeline.StageUnpack:    "Unpack cached archives and prune obsolete fragments",
		pipeline.StageExtract:   "Write the canonical CSV dataset from unpacked fragments",
		pipeline.StageTranslate: "Merge the English translation corpus into the dataset",
	}
	cmds := make([]*cobra.Command, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		var jsonOut bool
		cmd := &cobra.Command{
			Use:   string(stage),
			Short: short[stage],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPipeline(cmd, ctx, pipeline.Only(stage), jsonOut)
			},
		}
		cmd.Flags().BoolVar(&jsonOut, "json", false, "Print run statistics as JSON")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, opts pipeline.Options, jsonOut bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.loggerFor(cmd)
	if err != nil {
		return err
	}
	stats, err := pipeline.New(cfg, logger).Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, stats)
	}
	printRunSummary(cmd.OutOrStdout(), stats)
	return nil
}

func printRunSummary(out io.Writer, stats pipeline.Stats) {
	ran := make(map[pipeline.Stage]bool, len(stats.Ran))
	for _, stage := range stats.Ran {
		ran[stage] = true
	}
	rows := make([][]string, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		if !ran[stage] {
			rows = append(rows, []string{string(stage), "skipped", "", ""})
			continue
		}
		rows = append(rows, []string{
			string(stage),
			"done",
			stats.Durations[stage].Round(time.Millisecond).String(),
			stageDetail(stage, stats),
		})
	}
	fmt.Fprintf(out, "Run %s\n", stats.RunID)
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Result", "Duration", "Details"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	if path, ok := stats.Outputs["dataset"]; ok {
		fmt.Fprintf(out, "Dataset: %s\n", path)
	}
	if path, ok := stats.Outputs["merged"]; ok {
		fmt.Fprintf(out, "Merged dataset: %s\n", path)
	}
}

func stageDetail(stage pipeline.Stage, stats pipeline.Stats) string {
	switch stage {
	case pipeline.StageDownload:
		d := stats.Download
		return fmt.Sprintf("%d listed, %d fetched (%s), %d cached", d.Listed, d.Fetched, humanize.IBytes(uint64(d.Bytes)), d.Skipped)
	case pipeline.StageUnpack:
		u := stats.Unpack
		return fmt.Sprintf("%d archives, %s fragments, %d deleted", u.Archives, humanize.Comma(int64(u.FragmentsWritten)), u.Deleted)
	case pipeline.StageExtract:
		e := stats.Extract
		return fmt.Sprintf("%s rows, %s not in force", humanize.Comma(int64(e.Written)), humanize.Comma(int64(e.Skipped)))
	case pipeline.StageTranslate:
		t := stats.Translate
		if t.Digest == "" {
			return "translations disabled"
		}
		detail := fmt.Sprintf("%s of %s rows matched", humanize.Comma(t.Matched), humanize.Comma(t.Rows))
		if t.Changed {
			detail += ", corpus changed"
		}
		return detail
	}
	return ""
}
