// Package convert defines the Converter capability and its three
// implementations: a paged-document rasterizer (pdftoppm), a single-image
// resizer/recompressor, and a headless page screenshotter. Every converter
// turns one source file into JPEG artifacts under the output tree, honoring
// the shared dpi/quality/max-dimension parameters.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Converter renders one source file into raster artifacts. Implementations
// return the paths of every artifact written; on error no artifacts are
// reported and the caller treats the task as failed.
type Converter interface {
	Convert(ctx context.Context, src, outputRoot, relDir string, p Params) ([]string, error)
}

// BaseName returns the file name without directory or extension:
// "/in/docs/report.pdf" -> "report".
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactDir resolves and creates the per-source artifact directory
// outputRoot/relDir/{base}. MkdirAll tolerates the directory already
// existing, so concurrent tasks targeting the same parent cannot race.
func ArtifactDir(outputRoot, relDir, src string) (string, error) {
	dir := filepath.Join(outputRoot, relDir, BaseName(src))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory %s: %w", dir, err)
	}
	return dir, nil
}
