// Package ledger records build runs and fetched archives in SQLite.
//
// The ledger is history, not state: every stage can be re-run from the
// filesystem alone. It answers "what did the last builds do" and keeps the
// digest of the translation corpus each merge used, so a stale corpus can be
// spotted after the fact.
package ledger
