// Package fileutil provides case-insensitive file lookup over any fs.FS,
// so the same code serves os.DirFS directories and embedded sample sets.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ErrNotFound is returned when no file matches.
var ErrNotFound = errors.New("file not found")

// FindFile searches dir for a file named filename, ignoring case.
// An exact match is preferred over a case-folded one.
//
// Example:
//
//	p, err := FindFile(os.DirFS("samples"), ".", "Fib.PAUL")
//	// finds "fib.paul", "FIB.PAUL", ...
func FindFile(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	found := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() == filename {
			return path.Join(dir, entry.Name()), nil
		}
		if found == "" && strings.EqualFold(entry.Name(), filename) {
			found = path.Join(dir, entry.Name())
		}
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
	}
	return found, nil
}

// ListFiles returns the files directly inside dir whose extension matches one
// of exts (case-insensitive), sorted by name. With no exts every file matches.
func ListFiles(fsys fs.FS, dir string, exts ...string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(exts) > 0 && !HasExt(entry.Name(), exts...) {
			continue
		}
		files = append(files, path.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// HasExt reports whether name ends in one of exts, ignoring case.
func HasExt(name string, exts ...string) bool {
	ext := path.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
