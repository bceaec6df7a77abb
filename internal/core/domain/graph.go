package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph is the DependencyGraph of §3: forward/reverse adjacency over known
// targets, plus a deterministic topological linearization once validated.
//
// forward[t] names the targets t depends on (declared deps unioned with
// scanned imports, filtered to known target names by the caller before
// SetDependencies is called). reverse is its transpose, maintained alongside.
type Graph struct {
	targets map[string]*TargetSpec
	forward map[string][]string
	reverse map[string][]string
	order   []string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		targets: make(map[string]*TargetSpec),
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
}

// AddTarget registers a target. It is an error to add the same name twice.
func (g *Graph) AddTarget(t *TargetSpec) error {
	name := t.Name.String()
	if _, exists := g.targets[name]; exists {
		return zerr.With(zerr.Wrap(ErrTargetAlreadyExists, "failed to add target"), "target_name", name)
	}
	g.targets[name] = t
	if _, ok := g.forward[name]; !ok {
		g.forward[name] = nil
	}
	return nil
}

// SetDependencies sets the full forward-edge set for a target (the union of
// declared deps and scanned-import deps already filtered to known targets)
// and updates the reverse map. Dependencies are deduplicated and sorted.
func (g *Graph) SetDependencies(name string, deps []string) {
	uniq := slices.Clone(deps)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)
	g.forward[name] = uniq
	for _, dep := range uniq {
		if !slices.Contains(g.reverse[dep], name) {
			g.reverse[dep] = append(g.reverse[dep], name)
		}
	}
}

// Target returns the spec for name, or nil if unknown.
func (g *Graph) Target(name string) *TargetSpec {
	return g.targets[name]
}

// TargetCount returns the number of registered targets.
func (g *Graph) TargetCount() int {
	return len(g.targets)
}

// Forward returns the (already sorted) dependency set of a target.
func (g *Graph) Forward(name string) []string {
	return g.forward[name]
}

// Dependents returns the (unsorted) set of targets that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	return g.reverse[name]
}

// Validate computes a deterministic topological order via Kahn's algorithm,
// processing zero-in-degree nodes in lexicographic order so that two runs
// over the same graph always produce the same build plan (§4.4). It returns
// a CycleError-wrapped diagnostic if the forward graph is not a DAG.
func (g *Graph) Validate() error {
	inDegree := make(map[string]int, len(g.targets))
	names := make([]string, 0, len(g.targets))
	for name := range g.targets {
		names = append(names, name)
		inDegree[name] = 0
	}
	slices.Sort(names)

	for _, name := range names {
		for _, dep := range g.forward[name] {
			if _, known := g.targets[dep]; !known {
				return zerr.With(zerr.Wrap(ErrMissingDependency, dep), "dependency", dep)
			}
		}
	}
	// inDegree[t] counts how many of t's forward dependencies haven't yet
	// been placed in the order.
	for _, name := range names {
		inDegree[name] = len(g.forward[name])
	}

	var ready []string
	for _, name := range names {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(names))
	for len(ready) > 0 {
		slices.Sort(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, dependent := range g.reverse[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) < len(names) {
		return g.buildCycleError(names, order)
	}

	g.order = order
	return nil
}

// buildCycleError walks forward edges from an unordered node until a vertex
// repeats, reporting the recovered cycle as "A -> B -> C -> A".
func (g *Graph) buildCycleError(all []string, ordered []string) error {
	done := make(map[string]bool, len(ordered))
	for _, n := range ordered {
		done[n] = true
	}

	var start string
	for _, n := range all {
		if !done[n] {
			start = n
			break
		}
	}

	var path []string
	cur := start
	for {
		if idx, seen := indexOf(path, cur); seen {
			cyclePath := ""
			for i := idx; i < len(path); i++ {
				cyclePath += path[i] + " -> "
			}
			cyclePath += cur
			return zerr.With(zerr.Wrap(ErrCycleDetected, cyclePath), "cycle", cyclePath)
		}
		path = append(path, cur)
		next := ""
		for _, dep := range g.forward[cur] {
			if !done[dep] {
				next = dep
				break
			}
		}
		if next == "" {
			// Shouldn't happen for a genuine cycle, but avoid an infinite loop.
			return zerr.With(zerr.Wrap(ErrCycleDetected, start), "cycle", start)
		}
		cur = next
	}
}

func indexOf(path []string, name string) (int, bool) {
	for i, p := range path {
		if p == name {
			return i, true
		}
	}
	return 0, false
}

// Walk returns an iterator over targets in topological order. Validate must
// have returned nil first.
func (g *Graph) Walk() iter.Seq[*TargetSpec] {
	return func(yield func(*TargetSpec) bool) {
		for _, name := range g.order {
			if !yield(g.targets[name]) {
				return
			}
		}
	}
}

// Order returns the computed topological order (target names).
func (g *Graph) Order() []string {
	return g.order
}
