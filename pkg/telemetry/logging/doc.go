// Package logging configures structured logging for the probe service.
//
// Logs go through log/slog with a JSON or text handler. Setup installs the
// configured logger as the process default; components then derive scoped
// loggers via slog.Default().With("component", ...).
package logging
