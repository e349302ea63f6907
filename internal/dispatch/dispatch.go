// Package dispatch maps a discovered file to a conversion capability. The
// extension table is an open registry: adding a format registers a converter
// here and touches neither traversal nor scheduling.
package dispatch

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rasterbatch/internal/convert"
	"rasterbatch/internal/marker"
)

// Class is the classification of one discovered file.
type Class int

const (
	// Ignored files have no registered capability (or are already marked).
	Ignored Class = iota
	// Convert files map to a registered Converter.
	Convert
	// Expand files are archives whose contents re-enter discovery.
	Expand
)

// Task is the immutable unit of work for one file. Created once per
// classified file and consumed exactly once by the scheduler.
type Task struct {
	ID         string
	SourcePath string
	RelDir     string // Directory of the source relative to the scan root.
	Format     string // Registry tag resolving the Converter.
	OutputRoot string
	Params     convert.Params
	Depth      int    // Archive nesting depth; 0 for directly discovered files.
	ParentID   string // ID of the spawning archive task, if any.
}

// Registry is the extension-to-capability table. Safe for concurrent reads
// once populated; Register calls normally happen during startup.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]convert.Converter
	formats    map[string]string
	archives   map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		converters: make(map[string]convert.Converter),
		formats:    make(map[string]string),
		archives:   make(map[string]struct{}),
	}
}

// DefaultRegistry returns the registry with all built-in capabilities:
// paged documents, raster images, page markup, and zip archives.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("document", convert.PDFConverter{}, ".pdf")
	r.Register("image", convert.ImageConverter{},
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff")
	r.Register("page", convert.PageConverter{}, ".html", ".htm")
	r.RegisterArchive(".zip")
	return r
}

// Register binds a converter to a format tag and the given extensions.
// Extensions are matched case-insensitively and must include the dot.
func (r *Registry) Register(format string, conv convert.Converter, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[format] = conv
	for _, ext := range exts {
		r.formats[strings.ToLower(ext)] = format
	}
}

// RegisterArchive marks extensions as expandable archives.
func (r *Registry) RegisterArchive(exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.archives[strings.ToLower(ext)] = struct{}{}
	}
}

// Converter resolves a format tag to its implementation.
func (r *Registry) Converter(format string) (convert.Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.converters[format]
	return conv, ok
}

// ArchiveFormat is the tag carried by archive-expansion tasks.
const ArchiveFormat = "archive"

// Dispatcher classifies files against a registry with batch-wide output root
// and parameters injected into every task.
type Dispatcher struct {
	reg        *Registry
	outputRoot string
	params     convert.Params
}

// NewDispatcher builds a dispatcher. Params are clamped once here so every
// task carries valid values.
func NewDispatcher(reg *Registry, outputRoot string, params convert.Params) *Dispatcher {
	return &Dispatcher{
		reg:        reg,
		outputRoot: outputRoot,
		params:     params.Clamp(),
	}
}

// Classify maps a directly discovered file to a task.
func (d *Dispatcher) Classify(absPath, relDir string) (Task, Class) {
	return d.ClassifyNested(absPath, relDir, 0, "")
}

// ClassifyNested maps a file found inside an expanded archive to a task,
// carrying the nesting depth and the spawning archive's task ID. Files
// already carrying the processed mark are never classified.
func (d *Dispatcher) ClassifyNested(absPath, relDir string, depth int, parentID string) (Task, Class) {
	if marker.IsMarked(absPath) {
		return Task{}, Ignored
	}

	ext := strings.ToLower(filepath.Ext(absPath))

	d.reg.mu.RLock()
	_, isArchive := d.reg.archives[ext]
	format, isFormat := d.reg.formats[ext]
	d.reg.mu.RUnlock()

	switch {
	case isArchive:
		format = ArchiveFormat
	case !isFormat:
		return Task{}, Ignored
	}

	task := Task{
		ID:         uuid.NewString(),
		SourcePath: absPath,
		RelDir:     relDir,
		Format:     format,
		OutputRoot: d.outputRoot,
		Params:     d.params,
		Depth:      depth,
		ParentID:   parentID,
	}
	if isArchive {
		return task, Expand
	}
	return task, Convert
}
