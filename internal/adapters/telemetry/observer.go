package telemetry

import (
	"context"
	"sync"

	"aria.build/aria/internal/adapters/telemetry/progrock"
	"aria.build/aria/internal/core/domain"
	"aria.build/aria/internal/core/ports"
)

// Observer implements ports.Observer by rendering phases and target builds
// as vertices on a progrock tape (§4.6). Each phase and each dispatched
// target gets its own vertex, keyed by name; TargetDispatched/TargetFinished
// and PhaseStarted/PhaseFinished are expected to nest (a phase's vertices
// stay open while its targets build) the way progrock's tape already
// visualizes concurrent, hierarchical work.
type Observer struct {
	rec *progrock.Recorder

	mu      sync.Mutex
	phases  map[string]*progrock.Vertex
	targets map[string]*progrock.Vertex
}

var _ ports.Observer = (*Observer)(nil)

// NewObserver builds an Observer recording onto rec.
func NewObserver(rec *progrock.Recorder) *Observer {
	return &Observer{
		rec:     rec,
		phases:  make(map[string]*progrock.Vertex),
		targets: make(map[string]*progrock.Vertex),
	}
}

func (o *Observer) PhaseStarted(phase string) {
	v := o.rec.Record(context.Background(), phase)
	o.mu.Lock()
	o.phases[phase] = v
	o.mu.Unlock()
}

func (o *Observer) PhaseFinished(phase string, err error) {
	o.mu.Lock()
	v := o.phases[phase]
	delete(o.phases, phase)
	o.mu.Unlock()
	if v != nil {
		v.Complete(err)
	}
}

func (o *Observer) TargetDispatched(name string) {
	v := o.rec.Record(context.Background(), name)
	o.mu.Lock()
	o.targets[name] = v
	o.mu.Unlock()
}

func (o *Observer) TargetFinished(name string, status domain.TargetStatus, err error) {
	o.mu.Lock()
	v := o.targets[name]
	delete(o.targets, name)
	o.mu.Unlock()
	if v == nil {
		return
	}
	if status == domain.StatusCached {
		v.Cached()
		return
	}
	v.Complete(err)
}

// Close flushes and closes the underlying recording session.
func (o *Observer) Close() error {
	return o.rec.Close()
}
