// Package server runs long-lived components with a unified lifecycle and
// graceful shutdown on SIGINT/SIGTERM.
package server

import "context"

// Lifecycle defines the lifecycle interface for servers.
type Lifecycle interface {
	// Start starts the component. It must not block.
	Start(ctx context.Context) error
	// Stop stops the component gracefully.
	Stop(ctx context.Context) error
}

// Runnable represents a component that can be started and stopped.
type Runnable interface {
	Lifecycle
	// Name returns the component name for identification.
	Name() string
}
