package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coldlaw/internal/dataset"
	"coldlaw/internal/export"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
)

func records() []legi.Record {
	return []legi.Record{
		{
			ArticleIdentifier: "LEGIARTI000006419292",
			ArticleNum:        "1",
			TexteNature:       "CODE",
			TexteTitre:        "Code civil",
			TexteTitreCourt:   "Code civil",
			TexteContexte:     "Titre préliminaire\n",
			ContenuMarkdown:   "Les lois <b>entrent</b> en vigueur.",
			ContenuText:       "  Les lois & décrets entrent en vigueur.\n",
		},
		{
			ArticleIdentifier: "LEGIARTI000006900785",
			ArticleNum:        "2",
			TexteNature:       "DÉCRET",
			TexteMinistere:    "Ministère du Travail/Emploi",
			TexteTitre:        "Décret n° 2005-1 du 3 janvier 2005",
			ContenuText:       "Texte du décret.",
		},
		{
			ArticleIdentifier: "LEGIARTI000000000042",
			ArticleNum:        "42",
			TexteTitre:        "Texte sans nature",
			ContenuText:       "AB",
		},
	}
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cold-french-law.csv")
	w, err := dataset.Create(path, dataset.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, rec := range records() {
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestParseFormat(t *testing.T) {
	if f, err := export.ParseFormat(" JSON "); err != nil || f != export.FormatJSON {
		t.Fatalf("ParseFormat json = %q, %v", f, err)
	}
	if f, err := export.ParseFormat("txt"); err != nil || f != export.FormatTXT {
		t.Fatalf("ParseFormat txt = %q, %v", f, err)
	}
	if _, err := export.ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestJSONExport(t *testing.T) {
	out := t.TempDir()
	stats, err := export.Run(context.Background(), export.FormatJSON, writeDataset(t), out, export.Options{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Written != 3 || stats.LimitReached {
		t.Fatalf("unexpected stats %+v", stats)
	}

	path := filepath.Join(out, "LEGIARTI0000064", "LEGIARTI000006419292.json")
	if export.JSONPath(out, "LEGIARTI000006419292") != path {
		t.Fatalf("unexpected JSON path %q", export.JSONPath(out, "LEGIARTI000006419292"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "lois & décrets") {
		t.Fatalf("expected unescaped UTF-8 and ampersand, got %s", data)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(doc) != 9 {
		t.Fatalf("expected 9 fields, got %d: %v", len(doc), doc)
	}
	if doc["article_contenu"] != "  Les lois & décrets entrent en vigueur.\n" {
		t.Fatalf("unexpected content %q", doc["article_contenu"])
	}
	if _, ok := doc["article_contenu_markdown"]; ok {
		t.Fatal("markdown column must not be exported")
	}
}

func TestJSONExportLimit(t *testing.T) {
	out := t.TempDir()
	stats, err := export.Run(context.Background(), export.FormatJSON, writeDataset(t), out, export.Options{Limit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Written != 2 || !stats.LimitReached {
		t.Fatalf("unexpected stats %+v", stats)
	}
	matches, _ := filepath.Glob(filepath.Join(out, "*", "*.json"))
	if len(matches) != 2 {
		t.Fatalf("expected 2 files, got %v", matches)
	}
}

func TestTXTExport(t *testing.T) {
	out := t.TempDir()
	if _, err := export.Run(context.Background(), export.FormatTXT, writeDataset(t), out, export.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cases := []struct {
		path string
		body string
	}{
		{
			path: filepath.Join(out, "code", "code civil", "LEGIARTI000006419292.txt"),
			body: "Article 1 du Code civil.\nLes lois & décrets entrent en vigueur.",
		},
		{
			path: filepath.Join(out, "decret", "ministere du travail-emploi", "LEGIARTI000006900785.txt"),
			body: "Décret n° 2005-1 du 3 janvier 2005\nTexte du décret.",
		},
		{
			path: filepath.Join(out, "misc", "LEGIARTI000000000042.txt"),
			body: "Texte sans nature\nAB",
		},
	}
	for _, tc := range cases {
		data, err := os.ReadFile(tc.path)
		if err != nil {
			t.Fatalf("read %s: %v", tc.path, err)
		}
		if string(data) != tc.body {
			t.Fatalf("unexpected body in %s: %q", tc.path, data)
		}
	}
}

func TestTXTPathWithoutSubgroup(t *testing.T) {
	rec := legi.Record{ArticleIdentifier: "LEGIARTI000000000007", TexteNature: "CODE"}
	want := filepath.Join("/out", "code", "LEGIARTI000000000007.txt")
	if got := export.TXTPath("/out", rec); got != want {
		t.Fatalf("TXTPath = %q, want %q", got, want)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	if _, err := export.Run(context.Background(), export.Format("xml"), "unused.csv", t.TempDir(), export.Options{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExportedJSONCarriesEveryKey(t *testing.T) {
	out := t.TempDir()
	if _, err := export.Run(context.Background(), export.FormatJSON, writeDataset(t), out, export.Options{Logger: logging.NewNop()}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(export.JSONPath(out, "LEGIARTI000006419292"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(doc) != len(export.JSONKeys) {
		t.Fatalf("document has %d keys, JSONKeys lists %d", len(doc), len(export.JSONKeys))
	}
	for _, key := range export.JSONKeys {
		if _, ok := doc[key]; !ok {
			t.Errorf("exported document missing %q", key)
		}
	}
}

func TestValidateJSON(t *testing.T) {
	out := t.TempDir()
	if _, err := export.Run(context.Background(), export.FormatJSON, writeDataset(t), out, export.Options{Logger: logging.NewNop()}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	shard := filepath.Join(out, "LEGIARTI0000064")
	if err := os.WriteFile(filepath.Join(shard, "broken.json"), []byte(`{"article_identifier":`), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	if err := os.WriteFile(filepath.Join(shard, "partial.json"), []byte(`{"article_identifier":"LEGIARTI000000000001"}`), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}

	report, err := export.ValidateJSON(context.Background(), filepath.Join(out, "*", "*.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("ValidateJSON: %v", err)
	}
	if report.Checked != 5 || report.Valid != 3 || len(report.Invalid) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	reasons := map[string]string{}
	for _, bad := range report.Invalid {
		reasons[filepath.Base(bad.Path)] = bad.Reason
	}
	if !strings.HasPrefix(reasons["broken.json"], "malformed JSON") {
		t.Errorf("unexpected reason for broken.json: %q", reasons["broken.json"])
	}
	if !strings.Contains(reasons["partial.json"], "article_num") {
		t.Errorf("unexpected reason for partial.json: %q", reasons["partial.json"])
	}
}

func TestValidateJSONRejectsNonJSONPattern(t *testing.T) {
	_, err := export.ValidateJSON(context.Background(), filepath.Join(t.TempDir(), "*.txt"), logging.NewNop())
	if !errors.Is(err, export.ErrNotJSONPattern) {
		t.Fatalf("expected ErrNotJSONPattern, got %v", err)
	}
}
