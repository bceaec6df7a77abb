package telemetry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"aria.build/aria/internal/adapters/telemetry"
	"aria.build/aria/internal/adapters/telemetry/progrock"
	"aria.build/aria/internal/core/domain"
)

func newTestObserver() *telemetry.Observer {
	return telemetry.NewObserver(progrock.New())
}

func TestObserver_PhaseLifecycle(t *testing.T) {
	o := newTestObserver()

	o.PhaseStarted("parse")
	o.PhaseFinished("parse", nil)

	// Finishing an unknown phase must not panic.
	o.PhaseFinished("never-started", nil)
}

func TestObserver_TargetLifecycle(t *testing.T) {
	o := newTestObserver()

	o.TargetDispatched("libfoo")
	o.TargetFinished("libfoo", domain.StatusCompleted, nil)

	o.TargetDispatched("libbar")
	o.TargetFinished("libbar", domain.StatusFailed, errors.New("compile error"))

	o.TargetDispatched("libbaz")
	o.TargetFinished("libbaz", domain.StatusCached, nil)
}

func TestObserver_CloseFlushesRecorder(t *testing.T) {
	o := newTestObserver()
	o.TargetDispatched("libfoo")
	o.TargetFinished("libfoo", domain.StatusCompleted, nil)
	require.NoError(t, o.Close())
}
