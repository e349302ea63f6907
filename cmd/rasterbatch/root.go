package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rasterbatch/internal/check"
	"rasterbatch/internal/config"
	"rasterbatch/internal/display"
	"rasterbatch/internal/logging"
	"rasterbatch/internal/pipeline"
)

var flags struct {
	configPath string
	input      string
	output     string
	workers    int
	dryRun     bool
	checkOnly  bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rasterbatch",
		Short: "Batch-convert documents, images, and web pages to JPEG",
		Long: `rasterbatch walks an input directory, converts every supported file
(PDF, image, HTML, zip archives of those) to JPEG artifacts under an
output directory, and renames each finished source so reruns skip it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "rasterbatch.toml", "path to TOML config file")
	f.StringVarP(&flags.input, "input", "i", "", "input directory (overrides config)")
	f.StringVarP(&flags.output, "output", "o", "", "output directory (overrides config)")
	f.IntVarP(&flags.workers, "workers", "w", -1, "worker count (overrides config, 0 = all CPUs)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "classify and log without converting or renaming")
	f.BoolVar(&flags.checkOnly, "check", false, "run system diagnostics and exit")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// errFailures signals a completed batch with failed tasks; the summary has
// already been printed, so Execute's caller only needs the exit code.
var errFailures = errors.New("batch finished with failures")

func runBatch(cmd *cobra.Command) error {
	if flags.checkOnly {
		log, closeLog, err := logging.Setup("", flags.verbose)
		if err != nil {
			return err
		}
		defer closeLog.Close()
		check.RunCheck(log)
		return nil
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if werr := config.WriteSample(flags.configPath); werr != nil {
				return werr
			}
			fmt.Fprintf(os.Stderr, "wrote sample config to %s; edit it and rerun\n", flags.configPath)
			return errors.New("no config file found")
		}
		return err
	}

	applyFlags(&cfg)

	log, closeLog, err := logging.Setup(cfg.LogDirectory, flags.verbose)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	cfg.Normalize(log)
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputAbs, outputAbs, err := resolveDirs(cfg)
	if err != nil {
		return err
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		return err
	}
	cfg.InputDirectory = inputAbs
	cfg.OutputDirectory = outputAbs

	browserOK, err := check.CheckDeps()
	if err != nil {
		return err
	}
	if !browserOK {
		log.Warn().Msg("no headless browser found; HTML pages will fail to convert")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display.PrintBanner(os.Stdout)
	log.Info().
		Str("input", cfg.InputDirectory).
		Str("output", cfg.OutputDirectory).
		Int("workers", cfg.Workers).
		Bool("dry_run", cfg.DryRun).
		Msg("starting batch")

	start := time.Now()
	sum, err := pipeline.Run(ctx, cfg, nil, log)
	if err != nil {
		return err
	}

	display.PrintSummary(os.Stdout, sum, time.Since(start))
	if sum.Failed > 0 {
		logFailures(log, sum)
		return errFailures
	}
	return nil
}

// applyFlags overlays CLI flags onto the loaded config.
func applyFlags(cfg *config.Config) {
	if flags.input != "" {
		cfg.InputDirectory = config.NormalizeDirArg(flags.input)
	}
	if flags.output != "" {
		cfg.OutputDirectory = config.NormalizeDirArg(flags.output)
	}
	if flags.workers >= 0 {
		cfg.Workers = flags.workers
	}
	cfg.DryRun = flags.dryRun
}

// resolveDirs makes both directories absolute with symlinks resolved. The
// input directory must exist; the output directory is created.
func resolveDirs(cfg config.Config) (inputAbs, outputAbs string, err error) {
	inputAbs, err = filepath.Abs(cfg.InputDirectory)
	if err != nil {
		return "", "", err
	}
	if resolved, rerr := filepath.EvalSymlinks(inputAbs); rerr == nil {
		inputAbs = resolved
	}

	outputAbs, err = filepath.Abs(cfg.OutputDirectory)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(outputAbs, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	if resolved, rerr := filepath.EvalSymlinks(outputAbs); rerr == nil {
		outputAbs = resolved
	}
	return inputAbs, outputAbs, nil
}

func logFailures(log zerolog.Logger, sum pipeline.Summary) {
	for _, f := range sum.Failures {
		log.Error().Str("source", f.Path).Str("reason", f.Reason).Msg("task failed")
	}
}
