// Package sources turns the command-line inputs into the list of files to
// scan.
package sources

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Resolve expands paths into source files. A directory contributes its
// direct children whose extension is in exts (not recursive, sorted by
// name); any other path is taken as given. Only existing regular files are
// kept, and each file appears once, at its first position. Paths that were
// dropped are returned in skipped.
func Resolve(paths []string, exts []string) (files, skipped []string) {
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
			skipped = append(skipped, p)
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			skipped = append(skipped, p)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !Matches(e.Name(), exts) {
				continue
			}
			add(filepath.Join(p, e.Name()))
		}
	}
	return files, skipped
}

// Matches reports whether name has one of exts, compared case-insensitively.
// An empty exts matches everything.
func Matches(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(name)))
}
