package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"

	"coldlaw/internal/config"
	"coldlaw/internal/dataset"
	"coldlaw/internal/extract"
	"coldlaw/internal/ledger"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
	"coldlaw/internal/pipeline"
	"coldlaw/internal/testsupport"
	"coldlaw/internal/translation"
)

const (
	globalArchive = "Freemium_legi_global_20250101-000000.tar.gz"
	deltaArchive  = "LEGI_20250102-000000.tar.gz"
	corpusName    = "en_translations.tar.gz"

	id42 = "LEGIARTI000000000042"
	id43 = "LEGIARTI000000000043"
	id44 = "LEGIARTI000000000044"
	id45 = "LEGIARTI000000000045"
)

type fixture struct {
	server          *httptest.Server
	archiveRequests atomic.Int32
	corpusRequests  atomic.Int32
}

func article(id, etat string, contents ...string) testsupport.Article {
	return testsupport.Article{
		ID:         id,
		Num:        strings.TrimLeft(id[len(legi.FragmentPrefix):], "0"),
		Etat:       etat,
		Nature:     "CODE",
		TitreCourt: "Code civil",
		Titre:      "Code civil",
		Headings:   []string{"Livre Ier"},
		Contents:   contents,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	global := testsupport.TarGz(t,
		article(id42, "VIGUEUR", "<p>A</p>", "<p>B</p>").FragmentEntry("20250101"),
		article(id43, "ABROGE", "<p>repealed</p>").FragmentEntry("20250101"),
		article(id44, "VIGUEUR", "<p>soon gone</p>").FragmentEntry("20250101"),
	)
	delta := testsupport.TarGz(t,
		article(id45, "", "<p>new</p>").FragmentEntry("20250102"),
		testsupport.ManifestEntry("20250102", id44),
	)
	corpus := testsupport.TarGz(t, testsupport.Entry{
		Name: "en/" + id42 + ".json",
		Body: `{"article_identifier":"` + id42 + `","texte_titre":"Civil Code","article_contenu_markdown":"A\n\nB"}`,
	})

	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/OPENDATA/LEGI/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/OPENDATA/LEGI/")
		switch name {
		case "":
			fmt.Fprintf(w, `<html><body><a href="%[1]s">%[1]s</a> <a href="%[2]s">%[2]s</a></body></html>`, globalArchive, deltaArchive)
		case globalArchive:
			f.archiveRequests.Add(1)
			_, _ = w.Write(global)
		case deltaArchive:
			f.archiveRequests.Add(1)
			_, _ = w.Write(delta)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/datasets/"+corpusName, func(w http.ResponseWriter, r *http.Request) {
		f.corpusRequests.Add(1)
		if r.Header.Get("Authorization") != "Bearer hf-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(corpus)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) config(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithIndexURL(f.server.URL+"/OPENDATA/LEGI/"),
		testsupport.WithTranslationsURL(f.server.URL+"/datasets/"+corpusName),
	)
	cfg.Translations.Token = "hf-test"
	return cfg
}

func TestBuildEndToEnd(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(t)
	runner := pipeline.New(cfg, logging.NewNop(), pipeline.WithHTTPClient(f.server.Client()))

	stats, err := runner.Run(context.Background(), pipeline.Options{Command: "build"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RunID == "" {
		t.Fatal("expected run id")
	}
	if stats.Download.Listed != 2 || stats.Download.Fetched != 2 {
		t.Fatalf("unexpected download stats %+v", stats.Download)
	}
	if stats.Unpack.FragmentsWritten != 4 || stats.Unpack.Marked != 1 || stats.Unpack.Deleted != 1 {
		t.Fatalf("unexpected unpack stats %+v", stats.Unpack)
	}
	if stats.Extract.Processed != 3 || stats.Extract.Skipped != 1 || stats.Extract.Written != 2 {
		t.Fatalf("unexpected extract stats %+v", stats.Extract)
	}
	if stats.Translate.Rows != 2 || stats.Translate.Matched != 1 || stats.Translate.Unmatched != 1 {
		t.Fatalf("unexpected translate stats %+v", stats.Translate)
	}
	if len(stats.Ran) != len(pipeline.Stages) {
		t.Fatalf("expected every stage to run, got %v", stats.Ran)
	}

	records, err := dataset.ReadAll(cfg.DatasetPath())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 || records[0].ArticleIdentifier != id42 || records[1].ArticleIdentifier != id45 {
		t.Fatalf("unexpected dataset %+v", records)
	}
	text := records[0].ContenuText
	if a, b := strings.Index(text, "A"), strings.Index(text, "B"); a < 0 || b < a {
		t.Fatalf("expected A before B in %q", text)
	}
	if records[0].ArticleEtat != "VIGUEUR" || records[0].ArticleNum != "42" {
		t.Fatalf("unexpected record %+v", records[0])
	}

	r, err := dataset.OpenRaw(cfg.MergedDatasetPath())
	if err != nil {
		t.Fatalf("OpenRaw merged: %v", err)
	}
	defer r.Close()
	if got := len(r.Header()); got != len(translation.MergedHeader()) {
		t.Fatalf("unexpected merged header width %d", got)
	}

	book, err := ledger.Open(context.Background(), cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer book.Close()
	run, err := book.GetRun(context.Background(), stats.RunID)
	if err != nil || run == nil {
		t.Fatalf("expected ledger entry, got %v (%v)", run, err)
	}
	if run.Status != ledger.StatusSucceeded || run.TranslationDigest == "" {
		t.Fatalf("unexpected ledger run %+v", run)
	}
	fetched, err := book.Archives(context.Background())
	if err != nil || len(fetched) != 2 {
		t.Fatalf("expected 2 recorded archives, got %v (%v)", fetched, err)
	}
}

func TestSecondDownloadMakesNoArchiveRequests(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(t)
	runner := pipeline.New(cfg, logging.NewNop(), pipeline.WithHTTPClient(f.server.Client()))

	if _, err := runner.Run(context.Background(), pipeline.Only(pipeline.StageDownload)); err != nil {
		t.Fatalf("first download: %v", err)
	}
	if got := f.archiveRequests.Load(); got != 2 {
		t.Fatalf("expected 2 archive requests, got %d", got)
	}
	stats, err := runner.Run(context.Background(), pipeline.Only(pipeline.StageDownload))
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	if got := f.archiveRequests.Load(); got != 2 {
		t.Fatalf("expected no further archive requests, got %d total", got)
	}
	if stats.Download.Skipped != 2 || stats.Download.Fetched != 0 {
		t.Fatalf("unexpected stats %+v", stats.Download)
	}
	if len(stats.Skipped) != 3 {
		t.Fatalf("expected three skipped stages, got %v", stats.Skipped)
	}
}

func TestTranslationCorpusIsCached(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(t)
	runner := pipeline.New(cfg, logging.NewNop(), pipeline.WithHTTPClient(f.server.Client()))

	if _, err := runner.Run(context.Background(), pipeline.Options{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	stats, err := runner.Run(context.Background(), pipeline.Only(pipeline.StageTranslate))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got := f.corpusRequests.Load(); got != 1 {
		t.Fatalf("expected the corpus to be fetched once, got %d", got)
	}
	if stats.Translate.Changed {
		t.Fatal("expected identical corpus digest on rerun")
	}
}

func TestRunRefusesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: %v", err)
	}
	defer held.Unlock()

	_, err = pipeline.New(cfg, logging.NewNop()).Run(context.Background(), pipeline.Only(pipeline.StageExtract))
	if !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestUnpackWithoutArchivesFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := pipeline.New(cfg, logging.NewNop()).Run(context.Background(), pipeline.Only(pipeline.StageUnpack))
	if err == nil || !strings.Contains(err.Error(), "download stage") {
		t.Fatalf("expected missing archive error, got %v", err)
	}
}

func TestUnpackCountsEachObsoleteIdentifierOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	archivesByName := map[string][]byte{
		"LEGI_20250102-000000.tar.gz": testsupport.TarGz(t,
			article(id44, "VIGUEUR", "<p>x</p>").FragmentEntry("20250102"),
			testsupport.ManifestEntry("20250102", id43),
		),
		"LEGI_20250103-000000.tar.gz": testsupport.TarGz(t,
			testsupport.ManifestEntry("20250103", id43, id44),
		),
	}
	if err := os.MkdirAll(cfg.Paths.ArchiveDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, data := range archivesByName {
		if err := os.WriteFile(filepath.Join(cfg.Paths.ArchiveDir, name), data, 0o644); err != nil {
			t.Fatalf("write archive: %v", err)
		}
	}

	stats, err := pipeline.New(cfg, logging.NewNop()).Run(context.Background(), pipeline.Only(pipeline.StageUnpack))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Unpack.ManifestLines != 3 {
		t.Fatalf("expected 3 manifest lines, got %d", stats.Unpack.ManifestLines)
	}
	if stats.Unpack.Marked != 2 || stats.Unpack.Deleted != 1 {
		t.Fatalf("expected 2 distinct marked and 1 deleted, got %+v", stats.Unpack)
	}
}

func TestExtractFailureIsRecorded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	broken := legi.FragmentPath(cfg.Paths.UnpackDir, "LEGIARTI000000000099")
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(broken, []byte("<ARTICLE><ID>LEGIARTI000000000099</ID></ARTICLE>"), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}

	stats, err := pipeline.New(cfg, logging.NewNop()).Run(context.Background(), pipeline.Only(pipeline.StageExtract))
	if !errors.Is(err, extract.ErrMalformedContext) {
		t.Fatalf("expected ErrMalformedContext, got %v", err)
	}
	if !strings.Contains(err.Error(), broken) {
		t.Fatalf("expected error to name the fragment path: %v", err)
	}

	book, err := ledger.Open(context.Background(), cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer book.Close()
	run, _ := book.GetRun(context.Background(), stats.RunID)
	if run == nil || run.Status != ledger.StatusFailed || run.ErrorMessage == "" {
		t.Fatalf("unexpected ledger run %+v", run)
	}
}

func TestExtractOnEmptyTreeWritesHeaderOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stats, err := pipeline.New(cfg, logging.NewNop()).Run(context.Background(), pipeline.Only(pipeline.StageExtract))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Extract.Processed != 0 {
		t.Fatalf("unexpected stats %+v", stats.Extract)
	}
	records, err := dataset.ReadAll(cfg.DatasetPath())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty dataset, got %d rows", len(records))
	}
}

func TestCancelledRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.New(cfg, logging.NewNop()).Run(ctx, pipeline.Only(pipeline.StageExtract))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
