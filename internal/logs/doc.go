// Package logs reads back the daily JSON run logs.
//
// Tail returns the last lines of a file or everything after a byte offset,
// optionally waiting for new lines, with bounded memory. Entry and Filter
// decode one JSON record and select records by run, stage, or minimum level
// so `coldlaw logs` can show a single run without external tools.
package logs
