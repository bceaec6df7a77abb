// Package app implements the Orchestrator (C7, §4.6): it composes the
// ConfigLoader, SourceExpander, ImportScanner, DependencyAnalyzer,
// StateManager, and Scheduler into the ordered pipeline parse → interpolate
// → load state → expand sources → scan imports → build graph → detect
// cycles → mark dirty → execute → save state, surfacing progress through an
// Observer at each phase transition.
package app

import (
	"context"
	"path/filepath"
	"sort"

	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
	"aria.build/aria/internal/engine/graph"
	"aria.build/aria/internal/engine/scheduler"
	"aria.build/aria/internal/engine/state"
	"go.trai.ch/zerr"
)

// DefaultConfigFile is the build-description file name used when none is given.
const DefaultConfigFile = "aria.build"

// DefaultOutputDir is the artifact directory used when none is given.
const DefaultOutputDir = "build"

// RunOptions tunes one App.Run invocation.
type RunOptions struct {
	// ConfigPath is the build-description file to load. Empty defaults to
	// DefaultConfigFile.
	ConfigPath string
	// Targets is the requested target set. Empty means every declared target.
	Targets []string
	// OutputDir overrides the artifact directory. Empty defaults to DefaultOutputDir.
	OutputDir string
	// StatePath overrides the state manifest path. Empty defaults to
	// "<OutputDir>/.aria_build_state".
	StatePath string
	// Force ignores cached state and treats every requested target (and its
	// transitive dependencies) as dirty.
	Force bool
	DryRun bool
	Parallelism int
	Policy      scheduler.FailurePolicy
	GlobalFlags []string
}

func (o RunOptions) configPath() string {
	if o.ConfigPath == "" {
		return DefaultConfigFile
	}
	return o.ConfigPath
}

func (o RunOptions) outputDir() string {
	if o.OutputDir == "" {
		return DefaultOutputDir
	}
	return o.OutputDir
}

func (o RunOptions) statePath() string {
	if o.StatePath == "" {
		return filepath.Join(o.outputDir(), ".aria_build_state")
	}
	return o.StatePath
}

// App is the Orchestrator: it owns the external-collaborator adapters and
// drives one pipeline run per call to Run.
type App struct {
	configLoader ports.ConfigLoader
	expander     ports.SourceExpander
	scanner      ports.ImportScanner
	executor     ports.CompilerExecutor
	logger       ports.Logger
	observer     ports.Observer
}

// New builds an App. A nil observer defaults to ports.NopObserver.
func New(loader ports.ConfigLoader, expander ports.SourceExpander, scanner ports.ImportScanner, executor ports.CompilerExecutor, logger ports.Logger, observer ports.Observer) *App {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &App{
		configLoader: loader,
		expander:     expander,
		scanner:      scanner,
		executor:     executor,
		logger:       logger,
		observer:     observer,
	}
}

// Run executes the full pipeline and returns the scheduler's report. The
// aria CLI classifies a returned error by errors.Is: domain.ErrBuildFailed
// and domain.ErrCancelled exit with code 1; every other error (configuration,
// expansion, cycle, unknown target) exits with code 2.
func (a *App) Run(ctx context.Context, opts RunOptions) (*scheduler.Report, error) {
	a.observer.PhaseStarted("parse")
	model, err := a.configLoader.Load(opts.configPath())
	a.observer.PhaseFinished("parse", err)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	mgr := state.NewManager()
	a.observer.PhaseStarted("load_state")
	if err := mgr.Load(opts.statePath()); err != nil {
		a.logger.Warn("failed to load previous build state, starting from empty state", "error", err.Error())
	}
	a.observer.PhaseFinished("load_state", nil)

	baseDir := filepath.Dir(opts.configPath())
	outputDir := opts.outputDir()

	a.observer.PhaseStarted("expand_sources")
	err = a.expandSources(model, baseDir, outputDir)
	a.observer.PhaseFinished("expand_sources", err)
	if err != nil {
		return nil, err
	}

	a.observer.PhaseStarted("build_graph")
	analyzer := graph.NewAnalyzer(a.scanner)
	g, err := analyzer.Build(model)
	a.observer.PhaseFinished("build_graph", err)
	if err != nil {
		return nil, err
	}

	targets, err := a.resolveTargets(g, model, opts.Targets)
	if err != nil {
		return nil, err
	}

	a.observer.PhaseStarted("mark_dirty")
	initial, err := a.markDirty(g, mgr, targets, opts)
	a.observer.PhaseFinished("mark_dirty", err)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(g, a.executor, mgr, a.observer)
	a.observer.PhaseStarted("execute")
	report, err := sched.Run(ctx, initial, scheduler.Options{
		Parallelism: opts.Parallelism,
		Policy:      opts.Policy,
		DryRun:      opts.DryRun,
		OutputDir:   outputDir,
		GlobalFlags: opts.GlobalFlags,
	})
	a.observer.PhaseFinished("execute", err)

	a.observer.PhaseStarted("save_state")
	if !opts.DryRun {
		if saveErr := mgr.Save(opts.statePath()); saveErr != nil {
			a.logger.Warn("failed to save build state", "error", saveErr.Error())
		}
	}
	a.observer.PhaseFinished("save_state", nil)

	return report, err
}

// expandSources resolves every target's SourcePatterns into canonically
// sorted Sources and derives its OutputPath (§4.6, §6).
func (a *App) expandSources(model *domain.ConfigModel, baseDir, outputDir string) error {
	for _, t := range model.Targets {
		var sources []string
		seen := make(map[string]bool)
		for _, pattern := range t.SourcePatterns {
			matches, err := a.expander.Expand(baseDir, pattern, ports.ExpandOptions{FilesOnly: true})
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to expand source pattern"), "target", t.Name.String())
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					sources = append(sources, m)
				}
			}
		}
		sort.Strings(sources)
		t.Sources = sources
		t.OutputPath = domain.DeriveOutputPath(outputDir, t.Name.String(), t.Kind)
	}
	return nil
}

// resolveTargets validates the requested target names against the graph and
// defaults to every declared target when none are named.
func (a *App) resolveTargets(g *domain.Graph, model *domain.ConfigModel, requested []string) ([]string, error) {
	if len(requested) == 0 {
		all := make([]string, 0, len(model.Targets))
		for _, t := range model.Targets {
			all = append(all, t.Name.String())
		}
		sort.Strings(all)
		return all, nil
	}
	for _, name := range requested {
		if g.Target(name) == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrTargetNotFound, name), "target", name)
		}
	}
	return requested, nil
}

// markDirty computes the dependency closure of the requested targets and
// checks each member's dirty state, seeding the Scheduler's initial dirty
// set (§4.3, §4.5). Force treats the entire closure as dirty, bypassing the
// cache check.
func (a *App) markDirty(g *domain.Graph, mgr *state.Manager, targets []string, opts RunOptions) (map[string]domain.DirtyReason, error) {
	closure := dependencyClosure(g, targets)

	initial := make(map[string]domain.DirtyReason, len(closure))
	for name := range closure {
		t := g.Target(name)
		flags := make([]string, 0, len(opts.GlobalFlags)+len(t.Flags))
		flags = append(flags, opts.GlobalFlags...)
		flags = append(flags, t.Flags...)

		if opts.Force {
			initial[name] = domain.MissingRecord
			continue
		}

		reason, err := mgr.CheckDirty(name, t.OutputPath, t.Sources, flags)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to check target dirty state"), "target", name)
		}
		if reason.IsDirty() {
			initial[name] = reason
		}
	}
	return initial, nil
}

// dependencyClosure returns the set of names reachable from roots by
// following forward (dependency) edges, roots included.
func dependencyClosure(g *domain.Graph, roots []string) map[string]bool {
	closure := make(map[string]bool, len(roots))
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if closure[name] {
			continue
		}
		closure[name] = true
		queue = append(queue, g.Forward(name)...)
	}
	return closure
}
