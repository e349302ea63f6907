package convert

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ImageConverter recompresses a single raster image to JPEG, shrinking it to
// fit within the configured maximum dimensions. Decoding is done in-process;
// imaging handles PNG, JPEG, GIF, BMP and TIFF sources.
type ImageConverter struct{}

func (ImageConverter) Convert(ctx context.Context, src, outputRoot, relDir string, p Params) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}

	dir, err := ArtifactDir(outputRoot, relDir, src)
	if err != nil {
		return nil, err
	}

	out := filepath.Join(dir, BaseName(src)+".jpg")
	if err := imaging.Save(fitWithin(img, p), out, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("write %s: %w", out, err)
	}
	return []string{out}, nil
}

// fitWithin shrinks img so width <= MaxWidth and height <= MaxHeight while
// preserving aspect ratio. Images already within bounds pass through
// untouched; there is no upscaling.
func fitWithin(img image.Image, p Params) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.MaxWidth && b.Dy() <= p.MaxHeight {
		return img
	}
	return imaging.Fit(img, p.MaxWidth, p.MaxHeight, imaging.Lanczos)
}

// clampArtifact re-encodes the JPEG at path in place when it exceeds the
// configured bounds. Used by converters whose external tool cannot be told
// a pixel limit directly.
func clampArtifact(path string, p Params) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Dx() <= p.MaxWidth && b.Dy() <= p.MaxHeight {
		return nil
	}
	resized := imaging.Fit(img, p.MaxWidth, p.MaxHeight, imaging.Lanczos)
	if err := imaging.Save(resized, path, imaging.JPEGQuality(p.Quality)); err != nil {
		return fmt.Errorf("rewrite artifact %s: %w", path, err)
	}
	return nil
}
