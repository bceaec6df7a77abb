package app

import (
	"context"

	"github.com/grindlemire/graft"

	"aria.build/aria/internal/adapters/config"
	"aria.build/aria/internal/adapters/fs"
	"aria.build/aria/internal/adapters/logger"
	"aria.build/aria/internal/adapters/scanner"
	"aria.build/aria/internal/adapters/shell"
	"aria.build/aria/internal/adapters/telemetry"
	"aria.build/aria/internal/core/ports"
)

// NodeID is the unique identifier for the Orchestrator Graft node.
const NodeID graft.ID = "app.main"

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.ExpanderNodeID,
			scanner.NodeID,
			shell.ExecutorNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			expander, err := graft.Dep[ports.SourceExpander](ctx)
			if err != nil {
				return nil, err
			}
			scan, err := graft.Dep[ports.ImportScanner](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.CompilerExecutor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			observer, err := graft.Dep[ports.Observer](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, expander, scan, executor, log, observer), nil
		},
	})
}
