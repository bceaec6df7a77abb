// Package scheduler implements the Scheduler (C6, §4.5): worker-budget
// bounded, dirty-closure-propagating execution of a validated dependency
// graph. A single control loop owns all scheduling state; workers report
// completion over a channel rather than sharing the ready queue directly —
// the message-passing variant §9 prefers over condition-variable coordination.
package scheduler

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
	"go.trai.ch/zerr"
)

// FailurePolicy selects how the scheduler reacts to a target's build failure (§4.5).
type FailurePolicy string

const (
	// FailFast stops dispatching new targets after the first failure; in-flight builds run to completion.
	FailFast FailurePolicy = "fail_fast"
	// KeepGoing quarantines a failed target's dependents while independent subgraphs continue.
	KeepGoing FailurePolicy = "keep_going"
)

// Options configures one Scheduler run.
type Options struct {
	// Parallelism bounds concurrent builds; values below 1 are treated as 1.
	Parallelism int
	Policy      FailurePolicy
	// DryRun substitutes a no-op for compilation; no state is mutated (§4.5).
	DryRun bool
	// OutputDir is the project's output directory, needed to derive
	// per-source object paths when compiling a library target.
	OutputDir string
	// GlobalFlags are prepended to every target's own flags, both for the
	// compiler invocation and for command_hash (§3).
	GlobalFlags []string
}

func (o Options) workers() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}

// TargetResult is the outcome recorded for one target across a run.
type TargetResult struct {
	Name     string
	Status   domain.TargetStatus
	Reason   domain.DirtyReason
	Err      error
	Duration time.Duration
}

// Report summarizes a completed, failed, or cancelled run.
type Report struct {
	Results   map[string]*TargetResult
	Built     int
	Cached    int
	Skipped   int
	Failed    int
	Cancelled bool
}

// Scheduler drives execution of a validated dependency graph (§4.5).
type Scheduler struct {
	graph    *domain.Graph
	executor ports.CompilerExecutor
	state    ports.StateStore
	observer ports.Observer

	cancelled atomic.Bool
}

// New builds a Scheduler over an already-validated graph.
func New(graph *domain.Graph, executor ports.CompilerExecutor, state ports.StateStore, observer ports.Observer) *Scheduler {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &Scheduler{graph: graph, executor: executor, state: state, observer: observer}
}

// Cancel requests cooperative cancellation: observable between target
// dispatches, in-flight builds are allowed to complete (§5).
func (s *Scheduler) Cancel() { s.cancelled.Store(true) }

// Run computes the dirty closure over initial via reverse-edge propagation
// (§4.5) and executes every target it contains in dependency order, bounded
// by opts.Parallelism. The returned error is the first build failure
// encountered, if any; a cancelled run with no failure returns
// domain.ErrCancelled. Individual outcomes are in the returned Report.
func (s *Scheduler) Run(ctx context.Context, initial map[string]domain.DirtyReason, opts Options) (*Report, error) {
	dirty := make(map[string]domain.DirtyReason, len(initial))
	for name, reason := range initial {
		dirty[name] = reason
	}
	s.propagate(dirty)

	rs := s.newRunState(ctx, dirty, opts)
	for !rs.isDone() {
		rs.dispatch()
		if rs.isDone() {
			break
		}
		select {
		case res := <-rs.resultsCh:
			rs.handle(res)
		case <-ctx.Done():
			s.Cancel()
		}
	}

	if s.cancelled.Load() {
		rs.report.Cancelled = true
		if rs.firstErr == nil {
			return rs.report, domain.ErrCancelled
		}
	}
	return rs.report, rs.firstErr
}

// propagate computes the closure of dirty under reverse edges: every
// transitive dependent of a dirty target becomes dirty too (§4.5).
func (s *Scheduler) propagate(dirty map[string]domain.DirtyReason) {
	queue := make([]string, 0, len(dirty))
	for name := range dirty {
		queue = append(queue, name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range s.graph.Dependents(name) {
			if _, already := dirty[dependent]; !already {
				dirty[dependent] = domain.DependencyDirty
				queue = append(queue, dependent)
			}
		}
	}
}

type workResult struct {
	name     string
	duration time.Duration
	err      error
}

type runState struct {
	s    *Scheduler
	ctx  context.Context
	opts Options

	dirty       map[string]domain.DirtyReason
	remaining   map[string]int
	ready       []string
	quarantined map[string]bool
	active      int
	resultsCh   chan workResult

	report   *Report
	firstErr error
}

func (s *Scheduler) newRunState(ctx context.Context, dirty map[string]domain.DirtyReason, opts Options) *runState {
	rs := &runState{
		s:           s,
		ctx:         ctx,
		opts:        opts,
		dirty:       dirty,
		remaining:   make(map[string]int, len(dirty)),
		quarantined: make(map[string]bool),
		resultsCh:   make(chan workResult, opts.workers()),
		report:      &Report{Results: make(map[string]*TargetResult, s.graph.TargetCount())},
	}

	for _, name := range s.graph.Order() {
		if reason, ok := dirty[name]; ok {
			rs.report.Results[name] = &TargetResult{Name: name, Status: domain.StatusPending, Reason: reason}
		} else {
			rs.report.Results[name] = &TargetResult{Name: name, Status: domain.StatusCached, Reason: domain.Clean}
			rs.report.Cached++
		}
	}

	for name := range dirty {
		count := 0
		for _, dep := range s.graph.Forward(name) {
			if _, depDirty := dirty[dep]; depDirty {
				count++
			}
		}
		rs.remaining[name] = count
	}

	var ready []string
	for name, count := range rs.remaining {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	rs.ready = ready
	return rs
}

// isDone reports whether nothing is in flight and nothing more will be
// dispatched: no target is ready, or cancellation or a fail_fast failure
// has stopped dispatch.
func (rs *runState) isDone() bool {
	if rs.active > 0 {
		return false
	}
	return len(rs.ready) == 0 || rs.s.cancelled.Load() || (rs.opts.Policy == FailFast && rs.firstErr != nil)
}

// dispatch transitions ready targets into in-flight, up to the worker
// budget. It stops early once the scheduler is cancelled (§5) or, under
// fail_fast, once a failure has already been observed (§4.5) — an
// at-most-once guarantee holds because a target leaves rs.ready exactly
// once, here, before its goroutine is started.
func (rs *runState) dispatch() {
	s := rs.s
	for len(rs.ready) > 0 && rs.active < rs.opts.workers() {
		if s.cancelled.Load() {
			return
		}
		if rs.opts.Policy == FailFast && rs.firstErr != nil {
			return
		}

		sort.Strings(rs.ready)
		name := rs.ready[0]
		rs.ready = rs.ready[1:]

		rs.active++
		rs.report.Results[name].Status = domain.StatusRunning
		s.observer.TargetDispatched(name)

		target := s.graph.Target(name)
		go func(t *domain.TargetSpec) {
			start := time.Now()
			err := s.execute(rs.ctx, t, rs.opts)
			rs.resultsCh <- workResult{name: t.Name.String(), duration: time.Since(start), err: err}
		}(target)
	}
}

func (rs *runState) handle(res workResult) {
	rs.active--
	result := rs.report.Results[res.name]
	result.Duration = res.duration

	if res.err != nil {
		result.Status = domain.StatusFailed
		result.Err = res.err
		rs.report.Failed++
		if rs.firstErr == nil {
			rs.firstErr = res.err
		}
		rs.s.observer.TargetFinished(res.name, domain.StatusFailed, res.err)

		if rs.opts.Policy == KeepGoing {
			rs.quarantineDependents(res.name)
		}
		return
	}

	result.Status = domain.StatusCompleted
	rs.report.Built++
	rs.s.observer.TargetFinished(res.name, domain.StatusCompleted, nil)

	for _, dependent := range rs.s.graph.Dependents(res.name) {
		if _, isDirty := rs.dirty[dependent]; !isDirty {
			continue
		}
		if rs.quarantined[dependent] {
			continue
		}
		rs.remaining[dependent]--
		if rs.remaining[dependent] == 0 {
			rs.ready = append(rs.ready, dependent)
		}
	}
}

// quarantineDependents marks every transitive dependent of a failed target
// as skipped, without decrementing their remaining_deps, so they never
// become ready (§4.5 keep_going).
func (rs *runState) quarantineDependents(name string) {
	queue := append([]string(nil), rs.s.graph.Dependents(name)...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if rs.quarantined[n] {
			continue
		}
		rs.quarantined[n] = true
		if result := rs.report.Results[n]; result != nil && result.Status != domain.StatusFailed {
			result.Status = domain.StatusSkipped
			rs.report.Skipped++
		}
		queue = append(queue, rs.s.graph.Dependents(n)...)
	}
}

// execute runs one target's build: compile (and, for libraries, archive),
// then records the new ArtifactRecord on success. Dry runs skip both the
// compiler invocation and the state write (§4.5).
func (s *Scheduler) execute(ctx context.Context, t *domain.TargetSpec, opts Options) error {
	flags := make([]string, 0, len(opts.GlobalFlags)+len(t.Flags))
	flags = append(flags, opts.GlobalFlags...)
	flags = append(flags, t.Flags...)

	if opts.DryRun {
		return nil
	}

	result, err := s.compile(ctx, t, flags, opts.OutputDir)
	if err != nil {
		return err
	}
	if !result.Success() {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrBuildFailed, "compiler exited non-zero"), "target", t.Name.String()), "stderr", result.Stderr)
	}

	digests, err := s.directDependencyDigests(t)
	if err != nil {
		return err
	}

	return s.state.UpdateRecord(t.Name.String(), t.OutputPath, t.Sources, digests, nil, flags, result.Duration)
}

func (s *Scheduler) compile(ctx context.Context, t *domain.TargetSpec, flags []string, outputDir string) (ports.ExecResult, error) {
	if t.Kind == domain.TargetLibrary {
		return s.compileLibrary(ctx, t, flags, outputDir)
	}
	return s.executor.Compile(ctx, t.Sources, t.OutputPath, flags)
}

// compileLibrary compiles each source to its own object file under
// <output_dir>/obj/<name>/ and archives the results into the static library
// (§6). It stops at the first failing compile rather than archiving a
// partial object set.
func (s *Scheduler) compileLibrary(ctx context.Context, t *domain.TargetSpec, flags []string, outputDir string) (ports.ExecResult, error) {
	name := t.Name.String()
	objects := make([]string, 0, len(t.Sources))
	var elapsed time.Duration

	for _, src := range t.Sources {
		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		obj := domain.ObjectOutputPath(outputDir, name, stem)
		res, err := s.executor.Compile(ctx, []string{src}, obj, flags)
		elapsed += res.Duration
		if err != nil {
			return res, err
		}
		if !res.Success() {
			res.Duration = elapsed
			return res, nil
		}
		objects = append(objects, obj)
	}

	res, err := s.executor.Archive(ctx, objects, t.OutputPath)
	res.Duration += elapsed
	return res, err
}

// directDependencyDigests captures the content hash of every direct
// dependency's output artifact at the moment this build succeeds, so a
// later run can detect drift without rebuilding the dependency (§4.3).
func (s *Scheduler) directDependencyDigests(t *domain.TargetSpec) ([]domain.DependencyDigest, error) {
	deps := s.graph.Forward(t.Name.String())
	digests := make([]domain.DependencyDigest, 0, len(deps))
	for _, depName := range deps {
		dep := s.graph.Target(depName)
		if dep == nil {
			continue
		}
		hash, err := s.state.HashFile(dep.OutputPath)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to hash dependency output"), "dependency", depName)
		}
		digests = append(digests, domain.DependencyDigest{Path: dep.OutputPath, Hash: hash})
	}
	return digests, nil
}
