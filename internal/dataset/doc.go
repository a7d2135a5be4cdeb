// Package dataset writes and reads the canonical CSV dataset.
//
// The file is created once per extract run with the canonical header, then
// grows one fully-formed row per kept article. Every row is flushed as soon
// as it is appended so an interrupted run leaves a readable prefix.
package dataset
