package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/archlens/adl-diff-miner/internal/config"
	"github.com/archlens/adl-diff-miner/internal/metrics"
	"github.com/archlens/adl-diff-miner/internal/observability"
	"github.com/archlens/adl-diff-miner/pkg/gitlib"
	"github.com/archlens/adl-diff-miner/pkg/miner"
)

func mineCmd() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Emit ADL-diff training records for a repository's history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMine(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.RepoPath, "repo", "", "path to a git working directory (required)")
	cmd.Flags().StringVar(&flags.ADLFile, "adl-file", config.DefaultADLFile, "ADL path, matched case-insensitively")
	cmd.Flags().StringSliceVar(&flags.CodeExtensions, "code-exts", config.DefaultCodeExtensions,
		"accepted code file extensions")
	cmd.Flags().StringVar(&flags.Output, "output", "", "output path (default: stdout); .lz4 suffix compresses")
	cmd.Flags().IntVar(&flags.ContextDays, "context-days", config.DefaultContextDays, "context look-back window in days")
	cmd.Flags().BoolVar(&flags.ValidateSchema, "validate-schema", false, "validate each record against the record schema")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "quiet logging (warnings and above only)")
	cmd.Flags().StringVar(&flags.ConfigFile, "config", "", "optional YAML config file")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "",
		"write Prometheus text-exposition metrics for this run to this path")
	cmd.Flags().StringVar(&flags.MetricsPushGateway, "metrics-pushgateway", "",
		"push run metrics to this Prometheus Pushgateway URL")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

func runMine(cmd *cobra.Command, flags config.Flags) error {
	cfg, err := config.Load(flags, cmd.Flags().Changed)
	if err != nil {
		return invalidArgsError(err)
	}

	if cfg.RepoPath == "" {
		return invalidArgsError(errMissingRepo)
	}

	logger := observability.NewLogger(verbosityFor(cfg))

	repo, err := gitlib.OpenRepository(cfg.RepoPath)
	if err != nil {
		return runtimeError(err)
	}
	defer repo.Free()

	sink, isFile, err := openSink(cfg.Output)
	if err != nil {
		return runtimeError(err)
	}

	emitter, err := newEmitter(sink, isFile, cfg.Output, cfg.ValidateSchema)
	if err != nil {
		return runtimeError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	minerCfg := miner.Config{
		ADLPath:        cfg.ADLFile,
		CodeExtensions: cfg.CodeExtensions,
		ContextDays:    cfg.ContextDays,
	}

	started := time.Now()

	recorder := metrics.New()

	runErr := miner.Run(ctx, repo, minerCfg, emitter, logger, recorder)

	closeErr := emitter.Close()

	if runErr != nil {
		return runtimeError(runErr)
	}

	if closeErr != nil {
		return runtimeError(closeErr)
	}

	if err := writeMetrics(cfg, recorder); err != nil {
		return runtimeError(err)
	}

	printSummary(cmd, cfg, time.Since(started))

	return nil
}

// writeMetrics dumps run metrics to the configured sinks. A one-shot CLI
// process has no scrape window for a pull-based /metrics endpoint, so both
// sinks here are push/dump forms instead.
func writeMetrics(cfg *config.MinerConfig, recorder *metrics.Recorder) error {
	if cfg.MetricsFile != "" {
		f, err := os.Create(cfg.MetricsFile) //nolint:gosec // path comes from an operator-supplied CLI flag.
		if err != nil {
			return fmt.Errorf("open metrics file %s: %w", cfg.MetricsFile, err)
		}

		defer f.Close()

		if err := recorder.WriteText(f); err != nil {
			return err
		}
	}

	if cfg.MetricsPushGateway != "" {
		if err := recorder.PushToGateway(cfg.MetricsPushGateway, "adl_diff_miner"); err != nil {
			return err
		}
	}

	return nil
}

var errMissingRepo = fmt.Errorf("--repo is required (or set REPO_PATH)")

func verbosityFor(cfg *config.MinerConfig) observability.Verbosity {
	switch {
	case cfg.Verbose:
		return observability.LevelVerbose
	case cfg.Quiet:
		return observability.LevelQuiet
	default:
		return observability.LevelNormal
	}
}

// openSink resolves the output destination. isFile is false for stdout,
// which the Emitter must never close or compress.
func openSink(path string) (sink *os.File, isFile bool, err error) {
	if path == "" {
		return os.Stdout, false, nil
	}

	f, err := os.Create(path) //nolint:gosec // path comes from an operator-supplied CLI flag.
	if err != nil {
		return nil, false, fmt.Errorf("open output %s: %w", path, err)
	}

	return f, true, nil
}

// newEmitter wraps sink in the lz4 emitter when path ends in .lz4, else the
// plain NDJSON emitter.
func newEmitter(sink *os.File, isFile bool, path string, validateSchema bool) (*miner.Emitter, error) {
	if strings.HasSuffix(path, ".lz4") {
		if !isFile {
			return nil, fmt.Errorf("lz4 compression requires a file sink, not stdout")
		}

		return miner.NewLZ4Emitter(sink, validateSchema)
	}

	var closer io.Closer
	if isFile {
		closer = sink
	}

	return miner.NewEmitter(sink, closer, validateSchema)
}

func printSummary(cmd *cobra.Command, cfg *config.MinerConfig, elapsed time.Duration) {
	if cfg.Quiet {
		return
	}

	warn := color.New(color.FgYellow).SprintFunc()

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.ErrOrStderr())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"repo", "adl file", "context days", "elapsed"})
	tbl.AppendRow(table.Row{cfg.RepoPath, cfg.ADLFile, cfg.ContextDays, elapsed.Round(time.Millisecond)})
	tbl.Render()

	if cfg.Output != "" {
		if info, err := os.Stat(cfg.Output); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s to %s\n", humanize.Bytes(uint64(info.Size())), cfg.Output) //nolint:gosec // file size is non-negative.
		}
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), warn("output written to stdout"))
	}
}
