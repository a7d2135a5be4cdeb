package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"coldlaw/internal/legi"
)

var (
	// ErrMissingIdentifier means the fragment has no ID text.
	ErrMissingIdentifier = errors.New("fragment has no article identifier")
	// ErrMalformedContext means CONTEXTE, TEXTE or TITRE_TXT is missing.
	ErrMalformedContext = errors.New("fragment context is malformed")
)

// SkipReasonState is reported for fragments whose state is not in force.
const SkipReasonState = "state != " + legi.StateInForce

// Result is the outcome of extracting one fragment. When Skipped is true
// Record only carries the identifier and state.
type Result struct {
	Record  legi.Record
	Skipped bool
	Reason  string
	// DroppedContent counts CONTENU nodes that failed to render.
	DroppedContent int
}

// Extractor converts fragments to canonical records.
type Extractor struct {
	maxDepth int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile opens and extracts the fragment at path.
func (e *Extractor) ExtractFile(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer file.Close()
	return e.Extract(file)
}

// Extract parses one fragment document.
func (e *Extractor) Extract(r io.Reader) (Result, error) {
	doc, err := parseTree(r)
	if err != nil {
		return Result{}, err
	}

	id, ok := textOf(doc, "ID")
	if !ok || strings.TrimSpace(id) == "" {
		return Result{}, ErrMissingIdentifier
	}

	var rec legi.Record
	rec.ArticleIdentifier = id
	rec.ArticleNum = optional(doc, "NUM")
	rec.ArticleDateDebut = optional(doc, "DATE_DEBUT")
	rec.ArticleDateFin = optional(doc, "DATE_FIN")
	rec.ArticleEtat = optional(doc, "ETAT")

	// The state filter runs before CONTEXTE is resolved, so a repealed
	// article with a broken context is skipped rather than failed.
	if !legi.InForce(rec.ArticleEtat) {
		return Result{Record: rec, Skipped: true, Reason: SkipReasonState}, nil
	}

	contexte := doc.findFirst("CONTEXTE")
	if contexte == nil {
		return Result{}, fmt.Errorf("%s: %w: no CONTEXTE", id, ErrMalformedContext)
	}
	texte := contexte.findFirst("TEXTE")
	if texte == nil {
		return Result{}, fmt.Errorf("%s: %w: no CONTEXTE/TEXTE", id, ErrMalformedContext)
	}
	titreTxt := contexte.findFirst("TITRE_TXT")
	if titreTxt == nil {
		return Result{}, fmt.Errorf("%s: %w: no CONTEXTE/TITRE_TXT", id, ErrMalformedContext)
	}

	rec.TexteNature = texte.attr("nature")
	rec.TexteMinistere = texte.attr("ministere")
	rec.TexteNum = texte.attr("num")
	rec.TexteNor = texte.attr("nor")
	rec.TexteNumParutionJO = texte.attr("num_parution_jo")
	rec.TexteDatePubli = texte.attr("date_publi")
	rec.TexteDateSignature = texte.attr("date_signature")
	rec.TexteTitreCourt = titreTxt.attr("c_titre_court")
	rec.TexteTitre, _ = titreTxt.firstText()
	rec.TexteContexte = headingBreadcrumb(contexte)

	result := Result{}
	rec.ContenuMarkdown, rec.ContenuText, result.DroppedContent = e.renderContents(doc)
	result.Record = foldCRLF(rec)
	return result, nil
}

// foldCRLF rewrites CRLF pairs (from &#13;&#10; references) as LF. CSV
// readers fold CRLF inside quoted fields, so this is the form that
// survives a dataset round trip.
func foldCRLF(rec legi.Record) legi.Record {
	values := rec.Values()
	changed := false
	for i, v := range values {
		if strings.Contains(v, "\r\n") {
			values[i] = strings.ReplaceAll(v, "\r\n", "\n")
			changed = true
		}
	}
	if !changed {
		return rec
	}
	folded, err := legi.RecordFromValues(values)
	if err != nil {
		return rec
	}
	return folded
}

// textOf is the lookup every optional field goes through: the first element
// named name, then its leading text child.
func textOf(doc *node, name string) (string, bool) {
	el := doc.findFirst(name)
	if el == nil {
		return "", false
	}
	return el.firstText()
}

func optional(doc *node, name string) string {
	value, _ := textOf(doc, name)
	return value
}

// headingBreadcrumb joins every TITRE_TM heading, trimmed and newline
// terminated, in document order. Empty headings are skipped.
func headingBreadcrumb(contexte *node) string {
	var b strings.Builder
	for _, heading := range contexte.findAll("TITRE_TM") {
		text, _ := heading.firstText()
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderContents renders every CONTENU node twice. A node that fails either
// rendering contributes to neither.
func (e *Extractor) renderContents(doc *node) (markdown, text string, dropped int) {
	var md, plain strings.Builder
	for _, contenu := range doc.findAll("CONTENU") {
		renderedMD, err := renderMarkdown(contenu, e.maxDepth)
		if err != nil {
			dropped++
			continue
		}
		renderedText, err := renderText(contenu, e.maxDepth)
		if err != nil {
			dropped++
			continue
		}
		md.WriteString(renderedMD)
		plain.WriteString(renderedText)
	}
	return strings.TrimSpace(md.String()), strings.TrimSpace(plain.String()), dropped
}
