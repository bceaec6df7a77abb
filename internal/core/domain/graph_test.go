package domain_test

import (
	"strings"
	"testing"

	"aria.build/aria/internal/core/domain"
)

func target(name string) *domain.TargetSpec {
	return &domain.TargetSpec{Name: domain.NewInternedString(name), Kind: domain.TargetBinary}
}

func TestGraph_ValidateOrdersDeterministically(t *testing.T) {
	g := domain.NewGraph()
	for _, n := range []string{"app", "lib", "util"} {
		if err := g.AddTarget(target(n)); err != nil {
			t.Fatalf("AddTarget(%s) failed: %v", n, err)
		}
	}
	g.SetDependencies("app", []string{"lib"})
	g.SetDependencies("lib", []string{"util"})
	g.SetDependencies("util", nil)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	got := g.Order()
	want := []string{"util", "lib", "app"}
	if len(got) != len(want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestGraph_ValidateLexicographicTieBreak(t *testing.T) {
	g := domain.NewGraph()
	for _, n := range []string{"c", "a", "b"} {
		if err := g.AddTarget(target(n)); err != nil {
			t.Fatalf("AddTarget(%s) failed: %v", n, err)
		}
	}
	// No edges: all three are zero-indegree at once, so order must be
	// strictly lexicographic.
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	got := g.Order()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected lexicographic order %v, got %v", want, got)
		}
	}
}

func TestGraph_ValidateDetectsCycle(t *testing.T) {
	g := domain.NewGraph()
	for _, n := range []string{"a", "b"} {
		if err := g.AddTarget(target(n)); err != nil {
			t.Fatalf("AddTarget(%s) failed: %v", n, err)
		}
	}
	g.SetDependencies("a", []string{"b"})
	g.SetDependencies("b", []string{"a"})

	err := g.Validate()
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Fatalf("expected cycle error to mention both targets, got %v", err)
	}
}

func TestGraph_ValidateMissingDependency(t *testing.T) {
	g := domain.NewGraph()
	if err := g.AddTarget(target("app")); err != nil {
		t.Fatalf("AddTarget failed: %v", err)
	}
	g.SetDependencies("app", []string{"missing"})

	if err := g.Validate(); err == nil {
		t.Fatal("expected ErrMissingDependency")
	}
}

func TestGraph_DependentsIsReverseOfForward(t *testing.T) {
	g := domain.NewGraph()
	for _, n := range []string{"app", "lib"} {
		if err := g.AddTarget(target(n)); err != nil {
			t.Fatalf("AddTarget(%s) failed: %v", n, err)
		}
	}
	g.SetDependencies("app", []string{"lib"})
	g.SetDependencies("lib", nil)

	deps := g.Dependents("lib")
	if len(deps) != 1 || deps[0] != "app" {
		t.Fatalf("expected [app] as lib's dependents, got %v", deps)
	}
}
