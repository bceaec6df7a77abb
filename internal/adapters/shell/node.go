package shell

import (
	"context"

	"github.com/grindlemire/graft"

	"aria.build/aria/internal/adapters/logger"
	"aria.build/aria/internal/core/ports"
)

// ExecutorNodeID is the unique identifier for the CompilerExecutor Graft node.
const ExecutorNodeID graft.ID = "adapter.shell.executor"

func init() {
	graft.Register(graft.Node[ports.CompilerExecutor]{
		ID:        ExecutorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.CompilerExecutor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log, "", ""), nil
		},
	})
}
