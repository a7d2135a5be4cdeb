// Package textutil provides filename and path segment helpers shared by the
// exporters.
//
// Segments derived from free-text metadata (code titles, ministry names,
// text natures) are lowercased, stripped of diacritics, and cleared of
// characters that would split or escape a path.
package textutil
