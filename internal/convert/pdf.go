package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// PDFConverter rasterizes every page of a document to JPEG via pdftoppm
// (poppler-utils). Artifacts are named {base}_page_{n}.jpg, one per page,
// numbered from 1.
type PDFConverter struct{}

func (PDFConverter) Convert(ctx context.Context, src, outputRoot, relDir string, p Params) ([]string, error) {
	dir, err := ArtifactDir(outputRoot, relDir, src)
	if err != nil {
		return nil, err
	}

	base := BaseName(src)
	prefix := filepath.Join(dir, base+"_page")

	// pdftoppm writes prefix-{n}.jpg with n zero-padded to the page-count
	// width, so a lexicographic sort below preserves page order.
	stderr, err := runCapture(ctx, "pdftoppm",
		"-jpeg",
		"-r", strconv.Itoa(p.DPI),
		"-jpegopt", "quality="+strconv.Itoa(p.Quality),
		src, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm %s: %w (%s)", src, err, stderrTail(stderr))
	}

	produced, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("collect pages for %s: %w", src, err)
	}
	if len(produced) == 0 {
		return nil, fmt.Errorf("pdftoppm %s: no pages produced", src)
	}
	sort.Strings(produced)

	artifacts := make([]string, 0, len(produced))
	for i, page := range produced {
		final := filepath.Join(dir, fmt.Sprintf("%s_page_%d.jpg", base, i+1))
		if err := os.Rename(page, final); err != nil {
			return nil, fmt.Errorf("finalize page %d of %s: %w", i+1, src, err)
		}
		if err := clampArtifact(final, p); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, final)
	}
	return artifacts, nil
}
