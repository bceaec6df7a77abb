package fs

import (
	"context"

	"github.com/grindlemire/graft"

	"aria.build/aria/internal/core/ports"
)

// ExpanderNodeID is the unique identifier for the SourceExpander Graft node.
const ExpanderNodeID graft.ID = "adapter.fs.expander"

func init() {
	graft.Register(graft.Node[ports.SourceExpander]{
		ID:        ExpanderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceExpander, error) {
			return NewExpander(), nil
		},
	})
}
