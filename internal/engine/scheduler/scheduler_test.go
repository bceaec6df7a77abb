package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
	"aria.build/aria/internal/engine/scheduler"
)

type fakeExecutor struct {
	mu       sync.Mutex
	compiled []string
	fail     map[string]bool
}

func newFakeExecutor() *fakeExecutor { return &fakeExecutor{fail: make(map[string]bool)} }

func (f *fakeExecutor) Compile(_ context.Context, _ []string, output string, _ []string) (ports.ExecResult, error) {
	f.mu.Lock()
	f.compiled = append(f.compiled, output)
	fail := f.fail[output]
	f.mu.Unlock()
	if fail {
		return ports.ExecResult{ExitCode: 1, Stderr: "boom"}, nil
	}
	return ports.ExecResult{ExitCode: 0, Duration: time.Millisecond}, nil
}

func (f *fakeExecutor) Archive(_ context.Context, _ []string, output string) (ports.ExecResult, error) {
	f.mu.Lock()
	f.compiled = append(f.compiled, output)
	f.mu.Unlock()
	return ports.ExecResult{ExitCode: 0}, nil
}

func (f *fakeExecutor) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.compiled...)
}

func (f *fakeExecutor) indexOf(name string) int {
	for i, n := range f.order() {
		if n == name {
			return i
		}
	}
	return -1
}

type fakeStateStore struct {
	mu      sync.Mutex
	updated []string
}

func (f *fakeStateStore) CheckDirty(string, string, []string, []string) (domain.DirtyReason, error) {
	return domain.Clean, nil
}

func (f *fakeStateStore) UpdateRecord(name, _ string, _ []string, _ []domain.DependencyDigest, _ []string, _ []string, _ time.Duration) error {
	f.mu.Lock()
	f.updated = append(f.updated, name)
	f.mu.Unlock()
	return nil
}

func (f *fakeStateStore) MarkDirty(string)                {}
func (f *fakeStateStore) ToolchainChanged() bool          { return false }
func (f *fakeStateStore) HashFile(string) (string, error) { return "xxh64:0000000000000000", nil }

func (f *fakeStateStore) updatedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.updated...)
}

// diamondGraph builds a->{b,c}, b->d, c->d, all registered with a binary
// kind and an output path matching their name.
func diamondGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	for _, name := range []string{"a", "b", "c", "d"} {
		spec := &domain.TargetSpec{
			Name:       domain.NewInternedString(name),
			Kind:       domain.TargetBinary,
			Sources:    []string{name + ".src"},
			OutputPath: "/out/" + name,
		}
		require.NoError(t, g.AddTarget(spec))
	}
	g.SetDependencies("a", []string{"b", "c"})
	g.SetDependencies("b", []string{"d"})
	g.SetDependencies("c", []string{"d"})
	g.SetDependencies("d", nil)
	require.NoError(t, g.Validate())
	return g
}

func allDirty(g *domain.Graph) map[string]domain.DirtyReason {
	dirty := make(map[string]domain.DirtyReason)
	for _, name := range g.Order() {
		dirty[name] = domain.MissingRecord
	}
	return dirty
}

func TestScheduler_Run_DiamondRespectsOrdering(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := diamondGraph(t)
		exec := newFakeExecutor()
		store := &fakeStateStore{}
		s := scheduler.New(g, exec, store, nil)

		report, err := s.Run(context.Background(), allDirty(g), scheduler.Options{Parallelism: 2})
		require.NoError(t, err)
		require.Equal(t, 4, report.Built)
		require.Equal(t, 0, report.Failed)

		require.Less(t, exec.indexOf("/out/d"), exec.indexOf("/out/b"))
		require.Less(t, exec.indexOf("/out/d"), exec.indexOf("/out/c"))
		require.Less(t, exec.indexOf("/out/b"), exec.indexOf("/out/a"))
		require.Less(t, exec.indexOf("/out/c"), exec.indexOf("/out/a"))

		require.ElementsMatch(t, []string{"a", "b", "c", "d"}, store.updatedNames())
	})
}

func TestScheduler_Run_KeepGoingQuarantinesDependents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := diamondGraph(t)
		exec := newFakeExecutor()
		exec.fail["/out/b"] = true
		store := &fakeStateStore{}
		s := scheduler.New(g, exec, store, nil)

		report, err := s.Run(context.Background(), allDirty(g), scheduler.Options{
			Parallelism: 2,
			Policy:      scheduler.KeepGoing,
		})
		require.Error(t, err)
		require.Equal(t, domain.StatusFailed, report.Results["b"].Status)
		require.Equal(t, domain.StatusSkipped, report.Results["a"].Status)
		require.Equal(t, domain.StatusCompleted, report.Results["c"].Status)
		require.Equal(t, domain.StatusCompleted, report.Results["d"].Status)
		require.Equal(t, 2, report.Built)
		require.Equal(t, 1, report.Failed)
		require.Equal(t, 1, report.Skipped)
	})
}

func TestScheduler_Run_NonDirtyTargetsBecomeDirtyByPropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := diamondGraph(t)
		exec := newFakeExecutor()
		store := &fakeStateStore{}
		s := scheduler.New(g, exec, store, nil)

		dirty := map[string]domain.DirtyReason{"d": domain.SourceChanged}
		report, err := s.Run(context.Background(), dirty, scheduler.Options{Parallelism: 4})
		require.NoError(t, err)

		// d is the only explicitly dirty target, but b, c, a all transitively
		// depend on it, so none of them stay Clean (§4.5 propagation).
		require.Equal(t, 4, report.Built)
		require.Equal(t, 0, report.Cached)
		require.Equal(t, domain.DependencyDirty, report.Results["a"].Reason)
	})
}

func TestScheduler_Run_DryRunDoesNotMutateState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := diamondGraph(t)
		exec := newFakeExecutor()
		store := &fakeStateStore{}
		s := scheduler.New(g, exec, store, nil)

		report, err := s.Run(context.Background(), allDirty(g), scheduler.Options{Parallelism: 2, DryRun: true})
		require.NoError(t, err)
		require.Equal(t, 4, report.Built)
		require.Empty(t, exec.order())
		require.Empty(t, store.updatedNames())
	})
}
