package convert

// Documented defaults for conversion parameters.
const (
	DefaultDPI       = 300
	DefaultQuality   = 95
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
)

// Params holds the rasterization parameters injected uniformly into every
// task from batch configuration.
type Params struct {
	DPI       int // Render resolution for paged documents.
	Quality   int // JPEG compression level, 1-100.
	MaxWidth  int // Aspect-preserving shrink bound; never upscales.
	MaxHeight int
}

// DefaultParams returns Params with all documented defaults.
func DefaultParams() Params {
	return Params{
		DPI:       DefaultDPI,
		Quality:   DefaultQuality,
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
	}
}

// Clamp returns a copy of p with every field forced into its valid range:
// quality is clamped to [1,100], dpi and dimensions must be positive and
// fall back to the defaults otherwise.
func (p Params) Clamp() Params {
	if p.Quality < 1 {
		p.Quality = 1
	} else if p.Quality > 100 {
		p.Quality = 100
	}
	if p.DPI <= 0 {
		p.DPI = DefaultDPI
	}
	if p.MaxWidth <= 0 {
		p.MaxWidth = DefaultMaxWidth
	}
	if p.MaxHeight <= 0 {
		p.MaxHeight = DefaultMaxHeight
	}
	return p
}
