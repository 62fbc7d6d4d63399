// Package httpserver wraps net/http with environment-driven configuration,
// graceful shutdown on context cancellation or SIGINT/SIGTERM, and slog
// integration.
package httpserver
