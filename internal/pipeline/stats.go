package pipeline

import (
	"sync"

	"rasterbatch/internal/dispatch"
)

// Result is the outcome of one conversion task.
type Result struct {
	Task      dispatch.Task
	Artifacts []string
	Bytes     int64 // Total size of all artifacts written.
	Err       error
}

// Failure pairs a source path with the reason its task failed.
type Failure struct {
	Path   string
	Reason string
}

// Summary is the aggregate batch outcome. Succeeded+Failed == Total holds
// for every recorded set of results, regardless of arrival order.
type Summary struct {
	Total         int
	Succeeded     int
	Failed        int
	Failures      []Failure
	ArtifactBytes int64
}

// Aggregator accumulates task results. Record is commutative and
// associative; results may arrive from any worker in any order. A task ID
// is counted at most once.
type Aggregator struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	summary Summary
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Record folds one result into the summary. A result for an already-recorded
// task ID is dropped.
func (a *Aggregator) Record(r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, dup := a.seen[r.Task.ID]; dup {
		return
	}
	a.seen[r.Task.ID] = struct{}{}

	a.summary.Total++
	if r.Err != nil {
		a.summary.Failed++
		a.summary.Failures = append(a.summary.Failures, Failure{
			Path:   r.Task.SourcePath,
			Reason: r.Err.Error(),
		})
		return
	}
	a.summary.Succeeded++
	a.summary.ArtifactBytes += r.Bytes
}

// Summary returns a copy of the accumulated counts. Call after all tasks,
// including those spawned by archive recursion, have completed.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.summary
	out.Failures = append([]Failure(nil), a.summary.Failures...)
	return out
}
