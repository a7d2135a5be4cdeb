package export

import (
	"path/filepath"
	"strings"

	"coldlaw/internal/legi"
	"coldlaw/internal/textutil"
)

const (
	groupCode = "code"
	groupMisc = "misc"
	// natureCode is the texte_nature value of consolidated codes.
	natureCode = "CODE"
)

// TXTPath returns where the TXT document for rec is written.
func TXTPath(outDir string, rec legi.Record) string {
	group, subgroup := txtGroups(rec)
	parts := []string{outDir, group}
	if subgroup != "" {
		parts = append(parts, subgroup)
	}
	parts = append(parts, rec.ArticleIdentifier+".txt")
	return filepath.Join(parts...)
}

// txtGroups groups codes by their short title and every other nature by
// ministry. Records without a nature land in misc.
func txtGroups(rec legi.Record) (group, subgroup string) {
	switch {
	case rec.TexteNature == natureCode:
		return groupCode, textutil.FoldSegment(rec.TexteTitreCourt)
	case rec.TexteNature != "":
		group = textutil.FoldSegment(rec.TexteNature)
		if group == "" {
			group = groupMisc
		}
		return group, textutil.FoldSegment(rec.TexteMinistere)
	default:
		return groupMisc, ""
	}
}

// TXTBody renders the caption line followed by the trimmed article text.
func TXTBody(rec legi.Record) string {
	var caption string
	if rec.TexteNature == natureCode {
		caption = "Article " + rec.ArticleNum + " du " + rec.TexteTitreCourt + "."
	} else {
		caption = rec.TexteTitre
	}
	return caption + "\n" + strings.TrimSpace(rec.ContenuText)
}

func writeTXT(outDir string, rec legi.Record) (string, error) {
	if err := safeIdentifier(rec.ArticleIdentifier); err != nil {
		return "", err
	}
	path := TXTPath(outDir, rec)
	return path, writeFile(path, []byte(TXTBody(rec)))
}
