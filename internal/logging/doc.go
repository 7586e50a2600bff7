// Package logging assembles structured slog loggers used across shepherd.
//
// It owns the console and JSON handler plumbing, centralizes level parsing and
// output routing, and exposes context-aware helpers so engine code can
// automatically tag log lines with approval request IDs and acting profiles.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
