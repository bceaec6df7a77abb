package telemetry

import (
	"context"

	"github.com/grindlemire/graft"

	"aria.build/aria/internal/adapters/telemetry/progrock"
	"aria.build/aria/internal/core/ports"
)

// NodeID is the unique identifier for the Observer Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Observer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Observer, error) {
			return NewObserver(progrock.New()), nil
		},
	})
}
