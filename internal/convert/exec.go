package convert

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// runCapture runs an external tool with stderr captured for error reporting.
// Stdout is discarded; every tool used here writes its artifacts to disk.
func runCapture(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return stderrBuf.String(), err
}

// stderrTail reduces captured tool output to its last few lines so task
// failure reasons stay readable in the log.
func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	const keep = 5
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.TrimSpace(strings.Join(lines, "; "))
}
