// Package progrock wraps github.com/vito/progrock's tape/recorder model as
// the concrete vertex tree behind the telemetry.Observer adapter.
package progrock

import (
	"context"

	digest "github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
)

// Recorder records a tree of named, completable vertices to a progrock tape.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Recorder writing to a fresh in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder writing vertices to w.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{w: w, rec: progrock.NewRecorder(w)}
}

// Record starts a new vertex named name. Vertex identity is derived from the
// name so re-recording the same name across a run (e.g. a rebuilt target)
// produces a stable digest.
func (r *Recorder) Record(_ context.Context, name string) *Vertex {
	d := digest.FromString(name)
	return &Vertex{vertex: r.rec.Vertex(d, name)}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
