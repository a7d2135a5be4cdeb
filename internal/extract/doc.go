// Package extract turns one LEGI article fragment into a canonical record.
//
// Fragments are parsed into a small document tree with a tolerant decoder
// (HTML entities, auto-closed void elements) because article bodies embed
// loosely formed XHTML. Every optional field is an independent lookup that
// either yields a value or falls back to "", so a missing element only ever
// blanks its own column. The identifier and the CONTEXTE block are required;
// their absence means the archive no longer matches the expected schema and
// is reported as an error rather than masked.
package extract
