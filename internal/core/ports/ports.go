// Package ports defines the external-collaborator interfaces the engine
// depends on but does not implement itself (§1, §4.7): expanding source
// patterns into files, scanning a source file for its imports, and invoking
// the underlying compiler/archiver. It also carries the small ambient
// interfaces (logging, progress observation) the core calls through.
package ports

import (
	"context"
	"time"

	"aria.build/aria/internal/core/domain"
)

// ConfigLoader parses a build-description file into a fully interpolated
// ConfigModel (§4.1, §4.2, §6).
type ConfigLoader interface {
	Load(path string) (*domain.ConfigModel, error)
}

// SourceExpander resolves a glob-like pattern rooted at baseDir into a
// canonically sorted list of file paths (§4.7). A non-glob pattern that
// names an existing file resolves to that single file.
type SourceExpander interface {
	Expand(baseDir, pattern string, opts ExpandOptions) ([]string, error)
}

// ExpandOptions tunes SourceExpander.Expand.
type ExpandOptions struct {
	FilesOnly      bool
	FollowSymlinks bool
	IncludeHidden  bool
	// MaxDepth limits recursion for "**"; zero means unlimited.
	MaxDepth int
}

// StateStore is the subset of the StateManager (§4.3) the Scheduler depends
// on to decide whether a target needs rebuilding and to persist the outcome.
// *state.Manager satisfies this interface.
type StateStore interface {
	CheckDirty(name, outputPath string, sources []string, flags []string) (domain.DirtyReason, error)
	UpdateRecord(name, outputPath string, sources []string, directDeps []domain.DependencyDigest, implicitDeps []string, flags []string, duration time.Duration) error
	MarkDirty(name string)
	ToolchainChanged() bool
	HashFile(path string) (string, error)
}

// ImportScanner extracts the module names a source file imports, so the
// DependencyAnalyzer can union them with declared deps (§4.7, §4.4).
type ImportScanner interface {
	Scan(sourcePath string) ([]string, error)
}

// CompilerExecutor spawns the external compiler/archiver (§4.7). A non-zero
// ExitCode is a build failure. The Scheduler attaches Stderr to the returned
// domain.ErrBuildFailed error as "stderr" metadata; the aria CLI exits 1 on
// that error without printing it.
type CompilerExecutor interface {
	Compile(ctx context.Context, sources []string, output string, flags []string) (ExecResult, error)
	Archive(ctx context.Context, objects []string, output string) (ExecResult, error)
}

// ExecResult is the outcome of one compiler or archiver invocation.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited cleanly.
func (r ExecResult) Success() bool { return r.ExitCode == 0 }

// Logger is the ambient structured-logging sink used throughout the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives progress notifications at phase transitions and at each
// target dispatch/completion (§4.6). All methods must be safe to call from
// multiple goroutines concurrently.
type Observer interface {
	PhaseStarted(phase string)
	PhaseFinished(phase string, err error)
	TargetDispatched(name string)
	TargetFinished(name string, status domain.TargetStatus, err error)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) PhaseStarted(string)                              {}
func (NopObserver) PhaseFinished(string, error)                       {}
func (NopObserver) TargetDispatched(string)                           {}
func (NopObserver) TargetFinished(string, domain.TargetStatus, error) {}

var _ Observer = NopObserver{}
