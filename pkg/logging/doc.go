// Package logging provides structured logging for rapsflow in two modes:
// CLI mode writes directly to an output writer via slog.TextHandler; channel
// mode delivers LogEntry values over a buffered, non-blocking channel for a
// host dashboard to render. Both modes share the same Debug/Info/Warn/Error
// API, tagged by subsystem ("discovery", "raps", "ledger", "executor",
// "cleanup").
package logging
