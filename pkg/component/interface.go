// Package component holds shared contracts of infrastructure clients.
package component

import "context"

// Client is implemented by every long-lived infrastructure client so the
// health endpoint and shutdown path can treat them uniformly.
type Client interface {
	// Name returns the component identifier used in logs and health output.
	Name() string
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}
