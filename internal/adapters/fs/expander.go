// Package fs provides the filesystem-backed SourceExpander (§4.7): glob
// expansion of a target's source patterns into a canonically sorted list of
// files.
package fs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"aria.build/aria/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceExpander = (*Expander)(nil)

// Expander implements SourceExpander over the real filesystem. It uses
// doublestar for `*`/`**`/`?`/`[...]` pattern support, and matches against a
// Walker-based traversal instead of a glob over os.DirFS when
// options.FollowSymlinks is set. Walker does not descend through symlinked
// directories, so that path does not follow them either.
type Expander struct {
	walker *Walker
}

// NewExpander builds an Expander.
func NewExpander() *Expander {
	return &Expander{walker: NewWalker()}
}

// Expand resolves pattern against baseDir (§4.7). A pattern containing no
// glob metacharacters that names an existing file resolves to that single
// file, bypassing the glob engine entirely.
func (e *Expander) Expand(baseDir, pattern string, opts ports.ExpandOptions) ([]string, error) {
	if !containsMeta(pattern) {
		full := filepath.Join(baseDir, pattern)
		if _, err := os.Stat(full); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "source pattern did not match any file"), "pattern", pattern)
		}
		return []string{filepath.Clean(full)}, nil
	}

	var matches []string
	if opts.FollowSymlinks {
		// Walk with Walker and match by hand instead of globbing over
		// os.DirFS; see globViaWalk.
		m, err := e.globViaWalk(baseDir, pattern)
		if err != nil {
			return nil, err
		}
		matches = m
	} else {
		// doublestar matches dotfiles by default (unlike filepath.Glob);
		// hasHiddenComponent below re-applies IncludeHidden's default of
		// excluding them.
		m, err := doublestar.Glob(os.DirFS(baseDir), pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to expand glob pattern"), "pattern", pattern)
		}
		matches = m
	}

	out := make([]string, 0, len(matches))
	for _, rel := range matches {
		if !opts.IncludeHidden && hasHiddenComponent(rel) {
			continue
		}
		if opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > opts.MaxDepth {
			continue
		}
		full := filepath.Join(baseDir, rel)
		if opts.FilesOnly {
			info, err := os.Lstat(full)
			if err != nil || info.IsDir() {
				continue
			}
		}
		out = append(out, filepath.Clean(full))
	}
	sort.Strings(out)
	return dedupe(out), nil
}

// globViaWalk walks baseDir directly with Walker (visiting dotfiles, but not
// descending through symlinked directories) and keeps every relative path
// doublestar judges a match for pattern.
func (e *Expander) globViaWalk(baseDir, pattern string) ([]string, error) {
	var matches []string
	for path := range e.walker.WalkFiles(baseDir, nil) {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid glob pattern"), "pattern", pattern)
		}
		if ok {
			matches = append(matches, rel)
		}
	}
	return matches, nil
}

func containsMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func hasHiddenComponent(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func dedupe(sorted []string) []string {
	out := sorted[:0:0]
	var prev string
	for i, s := range sorted {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
