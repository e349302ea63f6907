// Package walker enumerates candidate files under a scan root. Traversal is
// read-only: it recurses into every subdirectory, prunes the archive tool's
// private metadata directory, and filters out files already carrying the
// processed mark. Paths are returned sorted for deterministic processing.
package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"rasterbatch/internal/marker"
)

// MetadataDir is the private metadata directory some archive tools embed
// (macOS zip resource forks). Never traversed.
const MetadataDir = "__MACOSX"

// Entry is one candidate file: its absolute path and the directory holding
// it, relative to the walk root ("." for files directly under the root).
type Entry struct {
	Path   string
	RelDir string
}

// Discover walks root and returns every regular, unmarked candidate file.
// It fails when root is not a readable directory.
func Discover(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "discover", Path: root, Err: errors.New("not a directory")}
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == MetadataDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if marker.IsMarked(path) {
			return nil
		}
		relDir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: path, RelDir: relDir})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
