// Package middleware provides the gin middlewares of the HTTP service:
// panic recovery, structured access logging and OpenTelemetry tracing.
package middleware
