package graph_test

import (
	"testing"

	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/engine/graph"
)

type stubScanner struct {
	bySource map[string][]string
}

func (s *stubScanner) Scan(sourcePath string) ([]string, error) {
	return s.bySource[sourcePath], nil
}

func targetSpec(name string, deps []string, sources []string) *domain.TargetSpec {
	return &domain.TargetSpec{
		Name:         domain.NewInternedString(name),
		Kind:         domain.TargetBinary,
		DeclaredDeps: deps,
		Sources:      sources,
	}
}

func TestAnalyzer_UnionsDeclaredAndScannedDeps(t *testing.T) {
	model := &domain.ConfigModel{
		Targets: []*domain.TargetSpec{
			targetSpec("app", []string{"lib"}, []string{"app.src"}),
			targetSpec("lib", nil, []string{"lib.src"}),
			targetSpec("util", nil, nil),
		},
	}
	scanner := &stubScanner{bySource: map[string][]string{
		"app.src": {"util", "unrelated_external_package"},
	}}

	g, err := graph.NewAnalyzer(scanner).Build(model)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	fwd := g.Forward("app")
	if len(fwd) != 2 || fwd[0] != "lib" || fwd[1] != "util" {
		t.Fatalf("expected app to depend on [lib util], got %v", fwd)
	}
}

func TestAnalyzer_CycleSurfaces(t *testing.T) {
	model := &domain.ConfigModel{
		Targets: []*domain.TargetSpec{
			targetSpec("a", []string{"b"}, nil),
			targetSpec("b", []string{"a"}, nil),
		},
	}
	if _, err := graph.NewAnalyzer(nil).Build(model); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestAnalyzer_NilScannerUsesDeclaredDepsOnly(t *testing.T) {
	model := &domain.ConfigModel{
		Targets: []*domain.TargetSpec{
			targetSpec("app", []string{"lib"}, []string{"app.src"}),
			targetSpec("lib", nil, nil),
		},
	}
	g, err := graph.NewAnalyzer(nil).Build(model)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fwd := g.Forward("app"); len(fwd) != 1 || fwd[0] != "lib" {
		t.Fatalf("expected [lib], got %v", fwd)
	}
}
