// Package expand extracts archives into the output tree and feeds the
// extracted contents back through discovery and classification, producing
// further tasks (nested archives recurse). Recursion is bounded by a maximum
// nesting depth and a visited-path guard so self-referential or endlessly
// nested archives cannot expand forever.
package expand

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"rasterbatch/internal/convert"
	"rasterbatch/internal/dispatch"
	"rasterbatch/internal/walker"
)

// DefaultMaxDepth bounds archive nesting when the configuration does not.
const DefaultMaxDepth = 8

var (
	// ErrTooDeep is returned for archives nested beyond the depth limit.
	ErrTooDeep = errors.New("archive nesting too deep")
	// ErrCycle is returned when an archive would expand into a path that
	// was already expanded, or into its own extraction directory.
	ErrCycle = errors.New("archive expansion cycle")
)

// Expander extracts archive tasks. One Expander serves the whole batch; its
// visited set spans every expansion in the run.
type Expander struct {
	maxDepth int
	log      zerolog.Logger

	mu      sync.Mutex
	visited map[string]struct{}
}

// New returns an Expander with the given nesting limit (<= 0 selects
// DefaultMaxDepth).
func New(maxDepth int, log zerolog.Logger) *Expander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{
		maxDepth: maxDepth,
		log:      log,
		visited:  make(map[string]struct{}),
	}
}

// Expand extracts the archive named by task into its scoped output
// subdirectory and classifies the extracted files against disp, returning
// the spawned tasks. Extraction failure reports the archive's own failure;
// no tasks are spawned for unreachable contents.
func (e *Expander) Expand(task dispatch.Task, disp *dispatch.Dispatcher) ([]dispatch.Task, error) {
	if task.Depth >= e.maxDepth {
		return nil, fmt.Errorf("%w: %s at depth %d (limit %d)", ErrTooDeep, task.SourcePath, task.Depth, e.maxDepth)
	}

	base := convert.BaseName(task.SourcePath)
	dest := filepath.Join(task.OutputRoot, task.RelDir, base)
	if err := e.claim(task.SourcePath, dest); err != nil {
		return nil, err
	}

	if err := extractZip(task.SourcePath, dest); err != nil {
		return nil, err
	}

	entries, err := walker.Discover(dest)
	if err != nil {
		return nil, fmt.Errorf("walk extracted %s: %w", dest, err)
	}

	var spawned []dispatch.Task
	for _, ent := range entries {
		relDir := filepath.Join(task.RelDir, base, ent.RelDir)
		t, class := disp.ClassifyNested(ent.Path, relDir, task.Depth+1, task.ID)
		if class == dispatch.Ignored {
			continue
		}
		spawned = append(spawned, t)
	}

	e.log.Debug().
		Str("archive", task.SourcePath).
		Str("dest", dest).
		Int("extracted", len(entries)).
		Int("spawned", len(spawned)).
		Msg("archive expanded")
	return spawned, nil
}

// claim records dest as an active expansion target, failing on reuse or when
// the archive sits inside its own extraction path.
func (e *Expander) claim(src, dest string) error {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dest, err)
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}

	sep := string(filepath.Separator)
	if absSrc == absDest || strings.HasPrefix(absSrc+sep, absDest+sep) {
		return fmt.Errorf("%w: %s would expand into its own path", ErrCycle, src)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.visited[absDest]; dup {
		return fmt.Errorf("%w: %s already expanded", ErrCycle, absDest)
	}
	e.visited[absDest] = struct{}{}
	return nil
}

// extractZip unpacks src into dest, refusing entries that would escape dest.
func extractZip(src, dest string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", src, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create extraction directory %s: %w", dest, err)
	}

	for _, entry := range reader.File {
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		if err := writeEntry(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("read archive entry %s: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return out.Close()
}

// safeJoin joins an archive entry name onto dest, rejecting absolute names
// and parent-directory escapes (zip-slip).
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	cleanDest := filepath.Clean(dest)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}
