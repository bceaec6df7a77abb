package config

import (
	"os"

	"aria.build/aria/internal/core/domain"
	"go.trai.ch/zerr"
)

// Loader reads a build-description file and produces a fully interpolated
// domain.ConfigModel (§4.1, §4.2, §6). It is the adapter implementation of
// ports.ConfigLoader.
type Loader struct {
	env EnvLookup
}

// NewLoader builds a Loader. A nil env defaults to os.LookupEnv.
func NewLoader(env EnvLookup) *Loader {
	return &Loader{env: env}
}

// Load reads path, parses it with whichever of the two supported grammars
// it matches, resolves interpolation, and builds a ConfigModel.
func (l *Loader) Load(path string) (*domain.ConfigModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read configuration file")
	}
	return l.LoadString(path, string(raw))
}

// LoadString parses src (labeled with file for diagnostics) and builds a
// ConfigModel, without touching the filesystem. Exported so tests and the
// legacy/brace dialect both funnel through one code path.
func (l *Loader) LoadString(file, src string) (*domain.ConfigModel, error) {
	root, diags, err := l.parse(file, src)
	if err != nil {
		return nil, err
	}
	if len(diags) > 0 {
		return nil, &SyntaxError{Diagnostics: diags}
	}

	ip := newInterpolator(l.env)
	if err := ip.Resolve(root); err != nil {
		return nil, err
	}

	return buildModel(root)
}

func (l *Loader) parse(file, src string) (*node, []Diagnostic, error) {
	if isLegacyDocument(src) {
		root, diags := parseLegacy(file, src)
		return root, diags, nil
	}
	a := newArena()
	p := newParser(file, src, a)
	root, diags := p.parseDocument()
	return root, diags, nil
}
