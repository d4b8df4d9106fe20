// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/mark/internal/adapters/config"
	_ "go.trai.ch/mark/internal/adapters/logger"
	_ "go.trai.ch/mark/internal/adapters/markers"
	_ "go.trai.ch/mark/internal/adapters/shell"
	_ "go.trai.ch/mark/internal/adapters/tracking"
	_ "go.trai.ch/mark/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/mark/internal/app"
)
