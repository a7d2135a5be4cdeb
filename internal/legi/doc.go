// Package legi defines the shared vocabulary of the LEGI corpus: fragment
// identifiers, their on-disk shard layout, archive layout markers, and the
// canonical article record every downstream stage reads or writes.
//
// Stages never hard-code archive paths or column names; they ask this package
// so the unpacker, pruner, extractor, dataset sink, and exporters agree on one
// layout.
package legi
