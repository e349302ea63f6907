package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ErrNoBrowser is returned when no headless-capable browser binary is on PATH.
var ErrNoBrowser = errors.New("no headless browser found (tried chromium, chromium-browser, google-chrome, google-chrome-stable)")

// browserCandidates lists binaries probed for headless screenshotting, in
// preference order.
var browserCandidates = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// BrowserBinary returns the first available headless browser on PATH.
func BrowserBinary() (string, error) {
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoBrowser
}

// PageConverter screenshots a local page-markup file with a headless browser
// and recompresses the capture to JPEG within the configured bounds.
type PageConverter struct{}

func (PageConverter) Convert(ctx context.Context, src, outputRoot, relDir string, p Params) ([]string, error) {
	bin, err := BrowserBinary()
	if err != nil {
		return nil, err
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", src, err)
	}

	dir, err := ArtifactDir(outputRoot, relDir, src)
	if err != nil {
		return nil, err
	}

	shot := filepath.Join(dir, BaseName(src)+".screenshot.png")
	stderr, err := runCapture(ctx, bin,
		"--headless",
		"--disable-gpu",
		"--hide-scrollbars",
		"--screenshot="+shot,
		fmt.Sprintf("--window-size=%d,%d", p.MaxWidth, p.MaxHeight),
		"file://"+absSrc,
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w (%s)", src, err, stderrTail(stderr))
	}
	defer os.Remove(shot)

	img, err := imaging.Open(shot)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot of %s: %w", src, err)
	}

	out := filepath.Join(dir, BaseName(src)+".jpg")
	if err := imaging.Save(fitWithin(img, p), out, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("write %s: %w", out, err)
	}
	return []string{out}, nil
}
