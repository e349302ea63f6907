// Package config holds runtime configuration: TOML loading, defaults,
// clamping of invalid numeric values, and validation of the directory
// contract (input and output required, output never inside input).
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"rasterbatch/internal/convert"
	"rasterbatch/internal/expand"
)

//go:embed sample_config.toml
var sampleConfig string

// Defaults for every tunable setting. input_directory and output_directory
// have no default; their absence is fatal.
const (
	DefaultWorkers            = 0 // 0 selects the machine's available parallelism.
	DefaultMaxArchiveDepth    = expand.DefaultMaxDepth
	DefaultTaskTimeoutSeconds = 0 // Disabled.
)

// Config holds all runtime settings. Populated by Default, overlaid by Load,
// then mutated by CLI flags before the batch starts.
type Config struct {
	InputDirectory  string `toml:"input_directory"`
	OutputDirectory string `toml:"output_directory"`

	DPI       int `toml:"dpi"`
	Quality   int `toml:"quality"`
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`

	Workers            int    `toml:"workers"`
	MaxArchiveDepth    int    `toml:"max_archive_depth"`
	TaskTimeoutSeconds int    `toml:"task_timeout_seconds"`
	LogDirectory       string `toml:"log_directory"`

	// Set from CLI flags, never from the file.
	DryRun bool `toml:"-"`
}

// Default returns a Config with all documented defaults.
func Default() Config {
	return Config{
		DPI:                convert.DefaultDPI,
		Quality:            convert.DefaultQuality,
		MaxWidth:           convert.DefaultMaxWidth,
		MaxHeight:          convert.DefaultMaxHeight,
		Workers:            DefaultWorkers,
		MaxArchiveDepth:    DefaultMaxArchiveDepth,
		TaskTimeoutSeconds: DefaultTaskTimeoutSeconds,
	}
}

// Load reads the TOML file at path over the defaults. A missing file is
// reported with an error wrapping fs.ErrNotExist so the caller can offer to
// write a sample.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteSample writes the commented sample configuration to path.
func WriteSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Normalize replaces invalid numeric settings with their defaults, logging
// each fallback, and strips trailing slashes from directory paths.
func (c *Config) Normalize(log zerolog.Logger) {
	fallback := func(name string, got int, def int) int {
		log.Warn().Str("setting", name).Int("value", got).Int("default", def).
			Msg("invalid config value, using default")
		return def
	}

	if c.DPI <= 0 {
		c.DPI = fallback("dpi", c.DPI, convert.DefaultDPI)
	}
	if c.Quality < 1 || c.Quality > 100 {
		c.Quality = fallback("quality", c.Quality, convert.DefaultQuality)
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = fallback("max_width", c.MaxWidth, convert.DefaultMaxWidth)
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = fallback("max_height", c.MaxHeight, convert.DefaultMaxHeight)
	}
	if c.Workers < 0 {
		c.Workers = fallback("workers", c.Workers, DefaultWorkers)
	}
	if c.MaxArchiveDepth <= 0 {
		c.MaxArchiveDepth = fallback("max_archive_depth", c.MaxArchiveDepth, DefaultMaxArchiveDepth)
	}
	if c.TaskTimeoutSeconds < 0 {
		c.TaskTimeoutSeconds = fallback("task_timeout_seconds", c.TaskTimeoutSeconds, DefaultTaskTimeoutSeconds)
	}

	c.InputDirectory = NormalizeDirArg(c.InputDirectory)
	c.OutputDirectory = NormalizeDirArg(c.OutputDirectory)
}

// NormalizeDirArg strips trailing slashes from a directory path. The
// filesystem root "/" is returned unchanged.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks the required settings. Both directories must be set.
func (c *Config) Validate() error {
	if c.InputDirectory == "" {
		return errors.New("input_directory is required")
	}
	if c.OutputDirectory == "" {
		return errors.New("output_directory is required")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, which would make the batch rediscover its
// own artifacts. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// Params returns the conversion parameters carried by every task.
func (c *Config) Params() convert.Params {
	return convert.Params{
		DPI:       c.DPI,
		Quality:   c.Quality,
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
	}
}

// TaskTimeout returns the per-task limit, or 0 when disabled.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}
