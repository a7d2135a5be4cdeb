// Package pipeline runs the build stages in order: download, unpack (with
// obsolescence pruning), extract, translate.
//
// A run holds an exclusive lock on the data directory, gets a uuid run id
// that tags every log line, and is recorded in the SQLite ledger. Stages are
// strictly sequential and each can be skipped; state lives on disk so a
// skipped stage reuses whatever a previous run left behind.
package pipeline
