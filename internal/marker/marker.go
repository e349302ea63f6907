// Package marker implements the processed-file naming convention that makes
// batch runs idempotent. A converted source is renamed in place with a
// "_processed" suffix before its extension; discovery skips any file that
// already carries the suffix, so a rerun over the same tree converts nothing.
package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Suffix is inserted before the file extension when a source is marked.
const Suffix = "_processed"

// MarkError reports a failed rename. The conversion itself may have
// succeeded, but an unmarked source would be reconverted on the next run,
// so callers must treat the task as failed.
type MarkError struct {
	Path string
	Err  error
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("mark %s: %v", e.Path, e.Err)
}

func (e *MarkError) Unwrap() error { return e.Err }

// MarkedName returns the path the source will have once marked:
// "report.pdf" becomes "report_processed.pdf". A file without an
// extension gets the suffix appended.
func MarkedName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + Suffix + ext
}

// IsMarked reports whether path already carries the processed suffix.
func IsMarked(path string) bool {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(base, Suffix)
}

// Mark renames the source to its marked name and returns the new path.
// Failure (permission, concurrent deletion) is returned as a *MarkError.
func Mark(path string) (string, error) {
	marked := MarkedName(path)
	if err := os.Rename(path, marked); err != nil {
		return "", &MarkError{Path: path, Err: err}
	}
	return marked, nil
}
