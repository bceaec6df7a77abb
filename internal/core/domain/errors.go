package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetAlreadyExists is returned when adding a target whose name is already registered.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrMissingDependency is returned when a target references a dependency that isn't a known target.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when the forward dependency graph contains a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTargetNotFound is returned when a requested target is absent from the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrNoTargetsSpecified names an empty requested-target list. No code path
	// returns it: App.Run builds every declared target when the list is empty.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrReservedTargetName is returned when a target is declared with a name the engine reserves.
	ErrReservedTargetName = zerr.New("target name is reserved")

	// ErrDuplicateTargetName is returned when the configuration declares the same target twice.
	ErrDuplicateTargetName = zerr.New("duplicate target name")

	// ErrEmptyTargetName is returned when a target is declared with an empty name.
	ErrEmptyTargetName = zerr.New("target name must not be empty")

	// ErrUnknownTargetKind is returned when a target declares a kind other than binary/library/object.
	ErrUnknownTargetKind = zerr.New("unknown target kind")

	// ErrBuildFailed is returned when a CompilerExecutor invocation exits non-zero.
	ErrBuildFailed = zerr.New("build failed")

	// ErrCancelled is returned by a run that was cancelled before completion.
	ErrCancelled = zerr.New("build cancelled")
)
