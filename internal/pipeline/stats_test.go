package pipeline

import (
	"errors"
	"testing"

	"rasterbatch/internal/dispatch"
)

func result(id, path string, bytes int64, err error) Result {
	return Result{
		Task:  dispatch.Task{ID: id, SourcePath: path},
		Bytes: bytes,
		Err:   err,
	}
}

func TestAggregator_Counts(t *testing.T) {
	agg := NewAggregator()
	agg.Record(result("1", "/in/a.pdf", 100, nil))
	agg.Record(result("2", "/in/b.png", 50, nil))
	agg.Record(result("3", "/in/c.zip", 0, errors.New("bad zip")))

	sum := agg.Summary()
	if sum.Total != 3 || sum.Succeeded != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.ArtifactBytes != 150 {
		t.Errorf("artifact bytes = %d, want 150", sum.ArtifactBytes)
	}
	if len(sum.Failures) != 1 || sum.Failures[0].Path != "/in/c.zip" || sum.Failures[0].Reason != "bad zip" {
		t.Errorf("failures = %+v", sum.Failures)
	}
}

func TestAggregator_CompletenessInvariant(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < 20; i++ {
		var err error
		if i%3 == 0 {
			err = errors.New("boom")
		}
		agg.Record(result(string(rune('a'+i)), "/in/x", 0, err))
	}
	sum := agg.Summary()
	if sum.Succeeded+sum.Failed != sum.Total {
		t.Errorf("succeeded %d + failed %d != total %d", sum.Succeeded, sum.Failed, sum.Total)
	}
	if len(sum.Failures) != sum.Failed {
		t.Errorf("len(Failures) = %d, Failed = %d", len(sum.Failures), sum.Failed)
	}
}

func TestAggregator_DuplicateTaskDropped(t *testing.T) {
	agg := NewAggregator()
	agg.Record(result("same", "/in/a.pdf", 10, nil))
	agg.Record(result("same", "/in/a.pdf", 10, nil))
	agg.Record(result("same", "/in/a.pdf", 0, errors.New("late failure")))

	sum := agg.Summary()
	if sum.Total != 1 || sum.Succeeded != 1 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want exactly one success", sum)
	}
	if sum.ArtifactBytes != 10 {
		t.Errorf("artifact bytes = %d, want 10", sum.ArtifactBytes)
	}
}

func TestAggregator_SummaryIsCopy(t *testing.T) {
	agg := NewAggregator()
	agg.Record(result("1", "/in/a.pdf", 0, errors.New("x")))

	sum := agg.Summary()
	sum.Failures[0].Reason = "mutated"

	if agg.Summary().Failures[0].Reason != "x" {
		t.Error("Summary must return an independent copy of Failures")
	}
}
