// Package preflight provides readiness checks for the filesystem paths and
// upstream index that a build depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before the first stage. If any check fails,
//     the build halts instead of dying halfway through a multi-gigabyte unpack.
//   - The CLI "coldlaw status" command renders every result as a table.
//
// Network checks are skipped when the download stage is skipped.
package preflight
