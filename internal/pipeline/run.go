package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"rasterbatch/internal/config"
	"rasterbatch/internal/dispatch"
	"rasterbatch/internal/expand"
	"rasterbatch/internal/walker"
)

// Run is the top-level batch entry point. It discovers candidate files under
// the input root, classifies each against the format registry, schedules the
// resulting tasks on the bounded pool, and returns aggregate counts. A nil
// registry selects the built-in formats.
func Run(ctx context.Context, cfg config.Config, reg *dispatch.Registry, log zerolog.Logger) (Summary, error) {
	if reg == nil {
		reg = dispatch.DefaultRegistry()
	}

	entries, err := walker.Discover(cfg.InputDirectory)
	if err != nil {
		return Summary{}, fmt.Errorf("discover input: %w", err)
	}

	disp := dispatch.NewDispatcher(reg, cfg.OutputDirectory, cfg.Params())

	var tasks []dispatch.Task
	ignored := 0
	for _, ent := range entries {
		task, class := disp.Classify(ent.Path, ent.RelDir)
		if class == dispatch.Ignored {
			ignored++
			continue
		}
		tasks = append(tasks, task)
	}

	log.Info().
		Int("candidates", len(entries)).
		Int("tasks", len(tasks)).
		Int("ignored", ignored).
		Str("input", cfg.InputDirectory).
		Str("output", cfg.OutputDirectory).
		Msg("discovery complete")

	sched := NewScheduler(Options{
		Workers:    cfg.Workers,
		Timeout:    cfg.TaskTimeout(),
		DryRun:     cfg.DryRun,
		Registry:   reg,
		Dispatcher: disp,
		Expander:   expand.New(cfg.MaxArchiveDepth, log),
		Log:        log,
	})
	return sched.Run(ctx, tasks), nil
}
