// Package main hosts the coldlaw CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the build pipeline
// (download, unpack, extract, translate), the per-article exports, the run
// ledger, and configuration scaffolding. Configuration resolution and
// logger setup live here so subcommands only describe what they run.
//
// Add functionality to the internal packages first, then surface it through
// a command or flag here.
package main
