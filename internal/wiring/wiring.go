// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "aria.build/aria/internal/adapters/config"
	_ "aria.build/aria/internal/adapters/fs"
	_ "aria.build/aria/internal/adapters/logger"
	_ "aria.build/aria/internal/adapters/scanner"
	_ "aria.build/aria/internal/adapters/shell"
	_ "aria.build/aria/internal/adapters/telemetry"
	// Register the Orchestrator node. The Scheduler has no Graft node of its
	// own: App.Run constructs one per invocation since it's scoped to a
	// single graph/state pairing, not a shared singleton.
	_ "aria.build/aria/internal/app"
)
