// Package logging builds the shared slog logger and the attribute helpers the
// rest of the module uses for structured output.
//
// Loggers write to stdout/stderr plus the configured log file, in console or
// JSON format. Context annotations set via internal/services (case, step,
// role, correlation id) are surfaced through WithContext so every component
// logs the same field names.
package logging
