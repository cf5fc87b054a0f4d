package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/batch"
)

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "analyze <url|video-id>",
		Short: "Analyze one video and recommend SEO improvements",
		Args:  cobra.ExactArgs(1),
		Example: `  # Analyze a video
  youseo analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ

  # Save a JSON report without comment analysis
  youseo analyze --no-comments --output json --output-file report.json dQw4w9WgXcQ`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args[0], &flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, raw string, flags *runFlags) error {
	ctx := cmd.Context()

	format, err := flags.format(a.cfg)
	if err != nil {
		return err
	}

	p, err := a.newPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	opts := a.runOptions(flags, bypassCache(cmd))
	opts.Workers = 1
	res := p.orchestrator.Run(ctx, []batch.Input{{Raw: raw}}, opts)
	item := &res.Items[0]
	if !item.Succeeded() {
		itemErr := fmt.Errorf("analyzing %s (%s stage): %w", raw, item.Stage, item.Err())
		if finishErr := p.finish(a, flags.metricsFile); finishErr != nil {
			return errors.Join(itemErr, finishErr)
		}
		return itemErr
	}

	report := engine.Report{
		Analysis:       *item.Analysis,
		Recommendation: *item.Recommendation,
		AnalyzedAt:     item.AnalyzedAt,
	}

	w, closeOutput, err := openOutput(cmd.OutOrStdout(), flags.outputFile)
	if err != nil {
		return err
	}
	writeErr := writeReport(w, format, report, res.Items, a.styled && flags.outputFile == "")
	if closeErr := closeOutput(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("writing report: %w", writeErr)
	}
	if flags.outputFile != "" {
		cmd.PrintErrf("Report written to %s\n", flags.outputFile)
	}

	return p.finish(a, flags.metricsFile)
}

func writeReport(w io.Writer, format string, report engine.Report, items []batch.Item, styled bool) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, report)
	case config.FormatNDJSON:
		return json.NewEncoder(w).Encode(report)
	case config.FormatCSV:
		_, err := writeCSV(w, items)
		return err
	default:
		return renderReport(w, report, styled)
	}
}
