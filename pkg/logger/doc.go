// Package logger builds the application's slog.Logger and provides typed
// attribute helpers so log records use consistent keys across services.
//
// Output format and level come from the environment (LOG_FORMAT, LOG_LEVEL),
// defaulting to JSON at info level for production log aggregation.
package logger
