package legi

import (
	"fmt"
	"strings"
)

// Canonical column names, in dataset order.
const (
	FieldArticleIdentifier  = "article_identifier"
	FieldArticleNum         = "article_num"
	FieldArticleEtat        = "article_etat"
	FieldArticleDateDebut   = "article_date_debut"
	FieldArticleDateFin     = "article_date_fin"
	FieldTexteDatePubli     = "texte_date_publi"
	FieldTexteDateSignature = "texte_date_signature"
	FieldTexteNature        = "texte_nature"
	FieldTexteMinistere     = "texte_ministere"
	FieldTexteNum           = "texte_num"
	FieldTexteNor           = "texte_nor"
	FieldTexteNumParutionJO = "texte_num_parution_jo"
	FieldTexteTitre         = "texte_titre"
	FieldTexteTitreCourt    = "texte_titre_court"
	FieldTexteContexte      = "texte_contexte"
	FieldArticleContenuMD   = "article_contenu_markdown"
	FieldArticleContenuText = "article_contenu_text"
)

// StateInForce is the only non-empty article state kept in the dataset.
const StateInForce = "VIGUEUR"

// Fields lists the canonical record columns in dataset order.
var Fields = []string{
	FieldArticleIdentifier,
	FieldArticleNum,
	FieldArticleEtat,
	FieldArticleDateDebut,
	FieldArticleDateFin,
	FieldTexteDatePubli,
	FieldTexteDateSignature,
	FieldTexteNature,
	FieldTexteMinistere,
	FieldTexteNum,
	FieldTexteNor,
	FieldTexteNumParutionJO,
	FieldTexteTitre,
	FieldTexteTitreCourt,
	FieldTexteContexte,
	FieldArticleContenuMD,
	FieldArticleContenuText,
}

// Record is one in-force article. Every field is a plain string; missing
// source nodes are represented by "".
type Record struct {
	ArticleIdentifier  string
	ArticleNum         string
	ArticleEtat        string
	ArticleDateDebut   string
	ArticleDateFin     string
	TexteDatePubli     string
	TexteDateSignature string
	TexteNature        string
	TexteMinistere     string
	TexteNum           string
	TexteNor           string
	TexteNumParutionJO string
	TexteTitre         string
	TexteTitreCourt    string
	TexteContexte      string
	ContenuMarkdown    string
	ContenuText        string
}

// InForce reports whether a state value passes the validity filter.
func InForce(state string) bool {
	return state == "" || state == StateInForce
}

// Values returns the record as a row ordered like Fields.
func (r Record) Values() []string {
	return []string{
		r.ArticleIdentifier,
		r.ArticleNum,
		r.ArticleEtat,
		r.ArticleDateDebut,
		r.ArticleDateFin,
		r.TexteDatePubli,
		r.TexteDateSignature,
		r.TexteNature,
		r.TexteMinistere,
		r.TexteNum,
		r.TexteNor,
		r.TexteNumParutionJO,
		r.TexteTitre,
		r.TexteTitreCourt,
		r.TexteContexte,
		r.ContenuMarkdown,
		r.ContenuText,
	}
}

// Get returns a field by column name.
func (r Record) Get(field string) (string, bool) {
	for i, name := range Fields {
		if name == field {
			return r.Values()[i], true
		}
	}
	return "", false
}

// RecordFromValues rebuilds a record from a row ordered like Fields.
func RecordFromValues(values []string) (Record, error) {
	if len(values) != len(Fields) {
		return Record{}, fmt.Errorf("record: expected %d columns, got %d", len(Fields), len(values))
	}
	return Record{
		ArticleIdentifier:  values[0],
		ArticleNum:         values[1],
		ArticleEtat:        values[2],
		ArticleDateDebut:   values[3],
		ArticleDateFin:     values[4],
		TexteDatePubli:     values[5],
		TexteDateSignature: values[6],
		TexteNature:        values[7],
		TexteMinistere:     values[8],
		TexteNum:           values[9],
		TexteNor:           values[10],
		TexteNumParutionJO: values[11],
		TexteTitre:         values[12],
		TexteTitreCourt:    values[13],
		TexteContexte:      values[14],
		ContenuMarkdown:    values[15],
		ContenuText:        values[16],
	}, nil
}

// HeaderMatches reports whether header equals Fields exactly.
func HeaderMatches(header []string) bool {
	if len(header) != len(Fields) {
		return false
	}
	for i, name := range Fields {
		if strings.TrimPrefix(header[i], "\ufeff") != name {
			return false
		}
	}
	return true
}
