package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine/batch"
)

// runFlags are the processing flags shared by analyze and batch.
type runFlags struct {
	noComments  bool
	noAI        bool
	maxComments int
	workers     int
	itemTimeout time.Duration
	output      string
	outputFile  string
	metricsFile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noComments, "no-comments", false, "skip fetching and analyzing comments")
	cmd.Flags().BoolVar(&f.noAI, "no-ai", false, "do not request AI insights")
	cmd.Flags().IntVar(&f.maxComments, "max-comments", 0, "maximum comments to analyze per video (0 = config default)")
	cmd.Flags().DurationVar(&f.itemTimeout, "item-timeout", 0, "time limit for the remote calls of one video (0 = config default)")
	cmd.Flags().StringVar(&f.output, "output", "", "output format: json, ndjson, table or csv (default from config)")
	cmd.Flags().StringVar(&f.outputFile, "output-file", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write fetch cache counters in Prometheus text format to this file")
}

func (f *runFlags) format(cfg *config.Config) (string, error) {
	format := f.output
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	if err := validateFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// newBatchCmd creates the batch command.
func newBatchCmd(a *app) *cobra.Command {
	var (
		flags     runFlags
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "batch [--file FILE] [URL...]",
		Short: "Analyze many videos concurrently",
		Long: `Analyzes every video given on the command line and in --file, running up to
--workers videos at a time. Output preserves input order. A failed video does
not stop the run; the command exits with status 2 when any video failed.

Input files hold one URL or video id per line (blank lines and lines starting
with # are skipped), or, with a .csv extension, the URL in the first column.`,
		Example: `  # Analyze a list of videos
  youseo batch --file videos.txt

  # Export a CSV report, 8 videos at a time
  youseo batch --file videos.csv --workers 8 --output csv --output-file report.csv

  # Stream one JSON object per video
  youseo batch --output ndjson https://youtu.be/dQw4w9WgXcQ 9bZkp7q19f0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args, inputFile, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "file with one video URL or id per line, or a CSV file")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "number of videos processed concurrently (0 = config default)")
	return cmd
}

func collectInputs(inputFile string, args []string) ([]batch.Input, error) {
	var inputs []batch.Input
	if inputFile != "" {
		fromFile, err := batch.ReadInputFile(inputFile)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, fromFile...)
	}
	inputs = append(inputs, batch.InputsFromArgs(args)...)
	if len(inputs) == 0 {
		return nil, batch.ErrNoInputs
	}
	return inputs, nil
}

func (a *app) runBatch(cmd *cobra.Command, args []string, inputFile string, flags *runFlags) error {
	ctx := cmd.Context()

	format, err := flags.format(a.cfg)
	if err != nil {
		return err
	}
	if flags.workers < 0 || flags.workers > batch.MaxWorkers {
		return fmt.Errorf("--workers must be between 1 and %d", batch.MaxWorkers)
	}
	inputs, err := collectInputs(inputFile, args)
	if err != nil {
		return err
	}

	var progress batch.ProgressCallback
	showProgress := a.styled && isTerminal(os.Stderr)
	if showProgress {
		progress = func(s batch.ProgressSnapshot) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %3.0f%% (%d failed)",
				s.ProcessedItems, s.TotalItems, s.PercentComplete, s.FailedItems)
		}
	}

	p, err := a.newPipeline(ctx, progress)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	res := p.orchestrator.Run(ctx, inputs, a.runOptions(flags, bypassCache(cmd)))
	if showProgress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	w, closeOutput, err := openOutput(cmd.OutOrStdout(), flags.outputFile)
	if err != nil {
		return err
	}
	writeErr := writeBatch(w, format, res, a.styled && flags.outputFile == "")
	if closeErr := closeOutput(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("writing report: %w", writeErr)
	}
	if flags.outputFile != "" {
		cmd.PrintErrf("Report written to %s\n", flags.outputFile)
	}
	if format == config.FormatCSV && res.HasFailures() {
		cmd.PrintErrf("%d failed videos were left out of the CSV report\n", res.Failed())
	}

	if err = p.finish(a, flags.metricsFile); err != nil {
		return err
	}

	if res.HasFailures() {
		return &BatchExitError{
			ExitCode: ExitCodeItemFailed,
			Failed:   res.Failed(),
			Total:    len(res.Items),
		}
	}
	return nil
}
