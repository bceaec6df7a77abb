// Package graph implements the DependencyAnalyzer (C5, §4.4): it builds the
// forward/reverse dependency graph from a ConfigModel, unioning declared
// deps with scanned imports, and orders it deterministically via Kahn's
// algorithm (domain.Graph.Validate).
package graph

import (
	"sort"

	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
)

// Analyzer builds and validates a domain.Graph from a ConfigModel.
type Analyzer struct {
	scanner ports.ImportScanner
}

// NewAnalyzer builds an Analyzer. scanner may be nil if no source file ever
// needs implicit-import discovery (declared deps only).
func NewAnalyzer(scanner ports.ImportScanner) *Analyzer {
	return &Analyzer{scanner: scanner}
}

// Build constructs the dependency graph for model: every target is
// registered, and each target's forward edges are the union of its declared
// deps and the names ImportScanner returns for its sources that also name a
// known target (§4.4). The returned graph is already topologically
// validated; a cycle surfaces as domain.ErrCycleDetected.
func (a *Analyzer) Build(model *domain.ConfigModel) (*domain.Graph, error) {
	g := domain.NewGraph()
	names := model.TargetNames()

	for _, t := range model.Targets {
		if err := g.AddTarget(t); err != nil {
			return nil, err
		}
	}

	for _, t := range model.Targets {
		deps := make(map[string]bool, len(t.DeclaredDeps))
		for _, d := range t.DeclaredDeps {
			deps[d] = true
		}

		if a.scanner != nil {
			for _, src := range t.Sources {
				scanned, err := a.scanner.Scan(src)
				if err != nil {
					return nil, err
				}
				for _, name := range scanned {
					if name == t.Name.String() {
						continue
					}
					if names[name] {
						deps[name] = true
					}
				}
			}
		}

		depList := make([]string, 0, len(deps))
		for d := range deps {
			depList = append(depList, d)
		}
		sort.Strings(depList)
		g.SetDependencies(t.Name.String(), depList)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
