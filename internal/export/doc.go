// Package export projects the canonical dataset into one file per article.
//
// Two layouts are supported. JSON files keep a fixed subset of columns and
// are sharded by identifier prefix. TXT files carry a one-line caption and the
// article text, grouped by text nature and then by code title or ministry.
package export
