package testsupport

import (
	"fmt"
	"html"
	"strings"
)

// FragmentEntryName returns the archive path LEGI uses for an in-force
// article fragment.
func FragmentEntryName(release, id string) string {
	return fmt.Sprintf("%s/legi/global/code_et_TNC_en_vigueur/code_en_vigueur/LEGI/TEXT/00/00/06/07/07/LEGITEXT000006070721/article/LEGI/ARTI/%s.xml", release, id)
}

// ManifestEntry builds a deletion manifest entry listing ids.
func ManifestEntry(release string, ids ...string) Entry {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString("legi/global/code_et_TNC_en_vigueur/code_en_vigueur/LEGI/TEXT/00/00/06/07/07/LEGITEXT000006070721/article/LEGI/ARTI/")
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return Entry{Name: release + "/liste_suppression_legi.dat", Body: b.String()}
}

// Article describes a LEGI article fragment. Empty article-level fields omit
// their element; text-level attributes are always present.
type Article struct {
	ID            string
	Num           string
	Etat          string
	DateDebut     string
	DateFin       string
	Nature        string
	Ministere     string
	TexteNum      string
	NOR           string
	NumParutionJO string
	DatePubli     string
	DateSignature string
	TitreCourt    string
	Titre         string
	Headings      []string
	// Contents are raw XHTML bodies, one CONTENU element each.
	Contents []string
}

// FragmentEntry renders the article as an in-force archive entry.
func (a Article) FragmentEntry(release string) Entry {
	return Entry{Name: FragmentEntryName(release, a.ID), Body: a.XML()}
}

// XML renders the fragment document.
func (a Article) XML() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<ARTICLE>\n<META>\n<META_COMMUN>\n")
	element(&b, "ID", a.ID)
	b.WriteString("<ORIGINE>LEGI</ORIGINE>\n<NATURE>Article</NATURE>\n</META_COMMUN>\n<META_SPEC>\n<META_ARTICLE>\n")
	element(&b, "NUM", a.Num)
	element(&b, "ETAT", a.Etat)
	element(&b, "DATE_DEBUT", a.DateDebut)
	element(&b, "DATE_FIN", a.DateFin)
	b.WriteString("<TYPE>AUTONOME</TYPE>\n</META_ARTICLE>\n</META_SPEC>\n</META>\n<CONTEXTE>\n")
	fmt.Fprintf(&b, "<TEXTE autorite=\"\" cid=\"LEGITEXT000006070721\" date_publi=%q date_signature=%q ministere=%q nature=%q nor=%q num=%q num_parution_jo=%q>\n",
		html.EscapeString(a.DatePubli), html.EscapeString(a.DateSignature), html.EscapeString(a.Ministere),
		html.EscapeString(a.Nature), html.EscapeString(a.NOR), html.EscapeString(a.TexteNum), html.EscapeString(a.NumParutionJO))
	fmt.Fprintf(&b, "<TITRE_TXT c_titre_court=%q debut=\"1803-03-15\" fin=\"2999-01-01\">%s</TITRE_TXT>\n",
		html.EscapeString(a.TitreCourt), html.EscapeString(a.Titre))
	if len(a.Headings) > 0 {
		b.WriteString("<TM>")
		for _, heading := range a.Headings {
			fmt.Fprintf(&b, "<TITRE_TM debut=\"1803-03-15\">%s</TITRE_TM>", html.EscapeString(heading))
		}
		b.WriteString("</TM>\n")
	}
	b.WriteString("</TEXTE>\n</CONTEXTE>\n<BLOC_TEXTUEL>\n")
	for _, content := range a.Contents {
		b.WriteString("<CONTENU>")
		b.WriteString(content)
		b.WriteString("</CONTENU>\n")
	}
	b.WriteString("</BLOC_TEXTUEL>\n</ARTICLE>\n")
	return b.String()
}

func element(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<%s>%s</%s>\n", name, html.EscapeString(value), name)
}
