// Package logging builds the slog loggers used across briefcast: a console
// handler for interactive use, a JSON handler for machine consumption, and
// helpers for standardized attribute keys and context-derived fields.
package logging
