// Package translation loads the English translation corpus and left-joins it
// onto the canonical dataset.
//
// The corpus is a gzip'd tar of one JSON object per article. Only an
// allow-list of fields is kept and each is emitted with an "_en" suffix.
// The merge never adds or drops rows: articles without a translation get
// empty English columns.
package translation
