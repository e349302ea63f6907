package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"rasterbatch/internal/dispatch"
	"rasterbatch/internal/expand"
	"rasterbatch/internal/marker"
)

// Options configures a Scheduler.
type Options struct {
	Workers    int           // Bounded pool size; <= 0 selects runtime.NumCPU().
	Timeout    time.Duration // Per-task limit; 0 disables.
	DryRun     bool          // Classify and count without converting or marking.
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher
	Expander   *expand.Expander
	Log        zerolog.Logger
}

// Scheduler runs conversion tasks on a bounded worker pool. Tasks have no
// ordering dependency on one another; any fault raised inside a task is
// converted into a failure result at the task boundary and never aborts
// the batch.
type Scheduler struct {
	workers int
	timeout time.Duration
	dryRun  bool
	reg     *dispatch.Registry
	disp    *dispatch.Dispatcher
	exp     *expand.Expander
	log     zerolog.Logger
}

// NewScheduler builds a scheduler from opts.
func NewScheduler(opts Options) *Scheduler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{
		workers: workers,
		timeout: opts.Timeout,
		dryRun:  opts.DryRun,
		reg:     opts.Registry,
		disp:    opts.Dispatcher,
		exp:     opts.Expander,
		log:     opts.Log,
	}
}

// outcome carries a finished task back to the coordinator, together with any
// tasks an archive expansion spawned.
type outcome struct {
	result  Result
	spawned []dispatch.Task
	archive bool
}

// archiveGroup tracks the spawned tasks of one expanded archive. The archive
// is marked processed only once every spawned task (transitively, for nested
// archives) has completed without failure.
type archiveGroup struct {
	task      dispatch.Task
	remaining int
	failed    bool
}

// Run drains tasks plus everything archive expansion spawns and returns the
// batch summary. Workers pull from an unbuffered queue so at most
// Options.Workers tasks run at once; the coordinator owns all scheduling
// state, so no locking is needed beyond the aggregator's own.
func (s *Scheduler) Run(ctx context.Context, tasks []dispatch.Task) Summary {
	agg := NewAggregator()
	if len(tasks) == 0 {
		return agg.Summary()
	}

	queue := make(chan dispatch.Task)
	outcomes := make(chan outcome)
	for i := 0; i < s.workers; i++ {
		go func() {
			for task := range queue {
				outcomes <- s.runTask(ctx, task)
			}
		}()
	}
	defer close(queue)

	pending := append([]dispatch.Task(nil), tasks...)
	groups := make(map[string]*archiveGroup)
	inflight := 0
	interrupted := false
	done := ctx.Done()

	for inflight > 0 || len(pending) > 0 {
		var send chan<- dispatch.Task
		var next dispatch.Task
		if len(pending) > 0 {
			send = queue
			next = pending[0]
		}

		select {
		case send <- next:
			pending = pending[1:]
			inflight++
		case oc := <-outcomes:
			inflight--
			if !interrupted {
				pending = append(pending, oc.spawned...)
			}
			s.settle(agg, groups, oc)
		case <-done:
			// Stop admitting queued tasks; in-flight tasks finish and are
			// settled above. Disable this case so the select keeps blocking.
			interrupted = true
			pending = nil
			done = nil
			s.log.Warn().Msg("interrupted; waiting for running tasks")
		}
	}

	return agg.Summary()
}

// runTask executes one task. Panics from a converter are recovered here and
// reported as task failures so a single bad file never takes down the batch.
func (s *Scheduler) runTask(ctx context.Context, task dispatch.Task) (oc outcome) {
	oc.result = Result{Task: task}
	defer func() {
		if r := recover(); r != nil {
			oc.result.Err = fmt.Errorf("task panic: %v", r)
			oc.spawned = nil
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.With().
		Str("task", task.ID).
		Str("source", task.SourcePath).
		Str("format", task.Format).
		Logger()
	log.Info().Msg("starting task")

	if task.Format == dispatch.ArchiveFormat {
		oc.archive = true
		if s.dryRun {
			log.Info().Msg("dry run: would expand archive")
			return oc
		}
		spawned, err := s.exp.Expand(task, s.disp)
		if err != nil {
			oc.result.Err = fmt.Errorf("expand archive: %w", err)
			return oc
		}
		oc.spawned = spawned
		return oc
	}

	conv, ok := s.reg.Converter(task.Format)
	if !ok {
		oc.result.Err = fmt.Errorf("no converter registered for format %q", task.Format)
		return oc
	}

	if s.dryRun {
		log.Info().Msg("dry run: would convert")
		return oc
	}

	artifacts, err := conv.Convert(ctx, task.SourcePath, task.OutputRoot, task.RelDir, task.Params)
	if err != nil {
		oc.result.Err = fmt.Errorf("convert: %w", err)
		return oc
	}
	oc.result.Artifacts = artifacts
	oc.result.Bytes = artifactBytes(artifacts)

	// Marking is the last step of a successful task: artifacts are on disk
	// by now, and a failed rename must surface as a task failure or the
	// next run would produce duplicates.
	if _, err := marker.Mark(task.SourcePath); err != nil {
		oc.result.Err = err
	}
	return oc
}

// settle records a finished task. Plain file results are final immediately;
// archive results are held in a group until every spawned task has settled,
// because the archive is only marked processed once its whole subtree is done.
func (s *Scheduler) settle(agg *Aggregator, groups map[string]*archiveGroup, oc outcome) {
	task := oc.result.Task

	if oc.archive && oc.result.Err == nil {
		g := &archiveGroup{task: task, remaining: len(oc.spawned)}
		groups[task.ID] = g
		if g.remaining == 0 {
			s.finalizeArchive(agg, groups, g)
		}
		return
	}

	s.record(agg, oc.result)
	s.notifyParent(groups, agg, task.ParentID, oc.result.Err != nil)
}

// notifyParent decrements the parent archive's outstanding count and
// finalizes it when the subtree is drained. A failed child leaves the
// archive unmarked so a later run re-extracts and retries it.
func (s *Scheduler) notifyParent(groups map[string]*archiveGroup, agg *Aggregator, parentID string, childFailed bool) {
	if parentID == "" {
		return
	}
	g, ok := groups[parentID]
	if !ok {
		return
	}
	g.failed = g.failed || childFailed
	g.remaining--
	if g.remaining == 0 {
		s.finalizeArchive(agg, groups, g)
	}
}

func (s *Scheduler) finalizeArchive(agg *Aggregator, groups map[string]*archiveGroup, g *archiveGroup) {
	delete(groups, g.task.ID)

	result := Result{Task: g.task}
	if g.failed {
		s.log.Warn().
			Str("archive", g.task.SourcePath).
			Msg("archive left unmarked: some contents failed and will be retried")
	} else if !s.dryRun {
		if _, err := marker.Mark(g.task.SourcePath); err != nil {
			result.Err = err
		}
	}

	s.record(agg, result)
	s.notifyParent(groups, agg, g.task.ParentID, g.failed || result.Err != nil)
}

func (s *Scheduler) record(agg *Aggregator, r Result) {
	agg.Record(r)
	if r.Err != nil {
		s.log.Error().
			Str("task", r.Task.ID).
			Str("source", r.Task.SourcePath).
			Err(r.Err).
			Msg("task failed")
		return
	}
	s.log.Info().
		Str("task", r.Task.ID).
		Str("source", r.Task.SourcePath).
		Int("artifacts", len(r.Artifacts)).
		Msg("task succeeded")
}

func artifactBytes(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			total += fi.Size()
		}
	}
	return total
}
