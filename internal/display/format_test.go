package display

import (
	"strings"
	"testing"
	"time"

	"rasterbatch/internal/pipeline"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical scan 4.2 MiB", 4404019, "4.2 MiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	sum := pipeline.Summary{
		Total:         4,
		Succeeded:     3,
		Failed:        1,
		ArtifactBytes: 2048,
		Failures: []pipeline.Failure{
			{Path: "/in/bad.pdf", Reason: "pdftoppm exited 1"},
		},
	}

	var buf strings.Builder
	PrintSummary(&buf, sum, 1500*time.Millisecond)
	out := buf.String()

	for _, want := range []string{
		"Conversion complete: 3 succeeded, 1 failed (of 4)",
		"Artifacts written: 2.0 KiB",
		"Elapsed: 1.5s",
		"failed: /in/bad.pdf: pdftoppm exited 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}
