// Package scanner implements the fallback ImportScanner (§4.7, §9): a
// pattern-match extractor for "use <identifier>" statements, used when no
// compiler-native import-list emitter is configured.
package scanner

import (
	"bufio"
	"os"
	"regexp"

	"aria.build/aria/internal/core/ports"
	"go.trai.ch/zerr"
)

var useStmt = regexp.MustCompile(`^\s*use\s+([A-Za-z_][A-Za-z0-9_./-]*)\s*;?\s*$`)

var _ ports.ImportScanner = (*Scanner)(nil)

// Scanner extracts module names from "use <identifier>" lines.
type Scanner struct{}

// New builds a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan reads sourcePath line by line and collects the identifier named by
// each "use" statement, in file order, deduplicated.
func (s *Scanner) Scan(sourcePath string) ([]string, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open source file for import scanning"), "path", sourcePath)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var names []string

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := useStmt.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := m[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read source file for import scanning"), "path", sourcePath)
	}

	return names, nil
}
