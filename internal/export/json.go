package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"coldlaw/internal/legi"
)

// jsonArticle is the exported JSON document. Field order is stable.
type jsonArticle struct {
	ArticleIdentifier string `json:"article_identifier"`
	ArticleNum        string `json:"article_num"`
	TexteNum          string `json:"texte_num"`
	TexteNature       string `json:"texte_nature"`
	TexteMinistere    string `json:"texte_ministere"`
	TexteTitre        string `json:"texte_titre"`
	TexteTitreCourt   string `json:"texte_titre_court"`
	TexteContexte     string `json:"texte_contexte"`
	ArticleContenu    string `json:"article_contenu"`
}

// JSONKeys lists the fields every exported JSON document must carry, in
// the order they are written.
var JSONKeys = []string{
	"article_identifier",
	"article_num",
	"texte_num",
	"texte_nature",
	"texte_ministere",
	"texte_titre",
	"texte_titre_court",
	"texte_contexte",
	"article_contenu",
}

// JSONPath returns where the JSON document for id is written.
func JSONPath(outDir, id string) string {
	return filepath.Join(outDir, legi.Shard(id), id+".json")
}

func writeJSON(outDir string, rec legi.Record) (string, error) {
	if err := safeIdentifier(rec.ArticleIdentifier); err != nil {
		return "", err
	}
	doc := jsonArticle{
		ArticleIdentifier: rec.ArticleIdentifier,
		ArticleNum:        rec.ArticleNum,
		TexteNum:          rec.TexteNum,
		TexteNature:       rec.TexteNature,
		TexteMinistere:    rec.TexteMinistere,
		TexteTitre:        rec.TexteTitre,
		TexteTitreCourt:   rec.TexteTitreCourt,
		TexteContexte:     rec.TexteContexte,
		ArticleContenu:    rec.ContenuText,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	path := JSONPath(outDir, rec.ArticleIdentifier)
	return path, writeFile(path, buf.Bytes())
}
