// Package fs provides file system adapters for walking files and expanding source patterns.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker traverses a directory tree with filepath.WalkDir. It exists as
// Expander.globViaWalk's traversal primitive (§4.7), not as a
// general-purpose file lister. It does not descend through symlinked
// directories: WalkDir reports a symlink as a single non-directory entry,
// which WalkFiles yields like a file.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file under root, skipping .git and .jj directories
// and any entry matched by ignores. An ignore pattern is matched with
// doublestar.Match against both the entry's root-relative, slash-separated
// path and its bare name, the same glob engine Expander.Expand uses, so
// "**/testdata/*" or a plain "*.log" both behave as the equivalent source
// pattern would. Yielded paths are rooted at root, as filepath.WalkDir
// produces them.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() && (d.Name() == ".git" || d.Name() == ".jj") {
				return filepath.SkipDir
			}

			if w.ignored(root, path, d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ignored reports whether path matches one of ignores, compared as a
// root-relative slash path (so "**/" patterns can reach into
// subdirectories) and as the entry's bare name (so a plain "*.log" matches
// regardless of depth).
func (w *Walker) ignored(root, path string, d fs.DirEntry, ignores []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = d.Name()
	}
	rel = filepath.ToSlash(rel)

	for _, ignore := range ignores {
		if ok, _ := doublestar.Match(ignore, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(ignore, d.Name()); ok {
			return true
		}
	}
	return false
}
