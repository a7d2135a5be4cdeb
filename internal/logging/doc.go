// Package logging assembles the structured slog loggers used by every coldlaw
// stage.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the persistent coldlaw.log file, and exposes context helpers so stage code
// tags log lines with the run identifier, stage name, and archive being
// processed. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the build.
package logging
