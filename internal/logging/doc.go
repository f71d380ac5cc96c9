// Package logging builds the slog loggers used across kinemetry: a
// human-readable console handler for interactive use and a JSON
// handler for machine consumption. Components receive a *slog.Logger
// and attach structured attrs (session_id, pattern, stage); tests use
// NewNop.
package logging
