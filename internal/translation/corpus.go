package translation

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/klauspost/compress/gzip"

	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
)

// Suffix marks translated columns in the merged dataset.
const Suffix = "_en"

// Fields is the allow-list of corpus fields. The first entry is the join key.
var Fields = []string{
	legi.FieldArticleIdentifier,
	legi.FieldTexteMinistere,
	legi.FieldTexteTitre,
	legi.FieldTexteTitreCourt,
	legi.FieldTexteContexte,
	legi.FieldArticleContenuMD,
}

// TranslatedColumns returns the non-key allow-listed fields with Suffix.
func TranslatedColumns() []string {
	out := make([]string, 0, len(Fields)-1)
	for _, field := range Fields[1:] {
		out = append(out, field+Suffix)
	}
	return out
}

// CorpusStats describes what was read from a corpus archive.
type CorpusStats struct {
	Entries   int
	Loaded    int
	Malformed int
	Unkeyed   int
}

// Corpus indexes translated values by article identifier.
type Corpus struct {
	entries map[string][]string
	stats   CorpusStats
	digest  string
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{entries: make(map[string][]string)}
}

// Len returns the number of distinct identifiers.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Stats returns load counters.
func (c *Corpus) Stats() CorpusStats {
	return c.stats
}

// Digest returns the hex SHA-256 of the corpus archive, or "" when the corpus
// was not read from an archive.
func (c *Corpus) Digest() string {
	return c.digest
}

// Lookup returns the translated values for id, ordered like
// TranslatedColumns.
func (c *Corpus) Lookup(id string) ([]string, bool) {
	values, ok := c.entries[id]
	return values, ok
}

// Add decodes one JSON object and indexes it. A later object for the same
// identifier replaces the earlier one.
func (c *Corpus) Add(data []byte) error {
	c.stats.Entries++
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil || object == nil {
		c.stats.Malformed++
		if err == nil {
			err = errors.New("not a JSON object")
		}
		return fmt.Errorf("malformed translation entry: %w", err)
	}
	values := make([]string, len(Fields))
	for i, field := range Fields {
		values[i] = stringify(object[field])
	}
	if values[0] == "" {
		c.stats.Unkeyed++
		return errors.New("translation entry has no article_identifier")
	}
	c.entries[values[0]] = values[1:]
	c.stats.Loaded++
	return nil
}

// stringify returns strings as-is, null or absent values as "", and any other
// JSON value as its compact encoding.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// LoadCorpus reads a corpus archive from disk.
func LoadCorpus(ctx context.Context, archivePath string, logger *slog.Logger) (*Corpus, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open translation corpus: %w", err)
	}
	defer file.Close()
	return ReadCorpus(ctx, file, logger)
}

// ReadCorpus reads a gzip'd tar corpus. Entries whose basename does not start
// with the fragment prefix are ignored; malformed entries are counted and
// skipped.
func ReadCorpus(ctx context.Context, r io.Reader, logger *slog.Logger) (*Corpus, error) {
	logger = logging.NewComponentLogger(logger, "translation")
	hash := sha256.New()
	gz, err := gzip.NewReader(io.TeeReader(r, hash))
	if err != nil {
		return nil, fmt.Errorf("open translation corpus gzip: %w", err)
	}
	defer gz.Close()

	corpus := NewCorpus()
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read translation corpus: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !legi.IsFragmentID(path.Base(hdr.Name)) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read translation entry %s: %w", hdr.Name, err)
		}
		if err := corpus.Add(data); err != nil {
			logger.Debug("translation entry skipped",
				logging.String("entry", hdr.Name),
				logging.Error(err),
			)
		}
	}
	// Drain the trailing gzip bytes so the digest covers the whole file.
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return nil, fmt.Errorf("drain translation corpus: %w", err)
	}
	if _, err := io.Copy(hash, r); err != nil {
		return nil, fmt.Errorf("hash translation corpus: %w", err)
	}
	corpus.digest = hex.EncodeToString(hash.Sum(nil))

	stats := corpus.Stats()
	logger.Info("translation corpus loaded",
		logging.String(logging.FieldEventType, "translation_corpus_loaded"),
		logging.Int("translation_entries", stats.Entries),
		logging.Int("translations_loaded", corpus.Len()),
		logging.Int("malformed_entries", stats.Malformed),
		logging.Int("unkeyed_entries", stats.Unkeyed),
	)
	if stats.Malformed > 0 {
		logging.WarnWithContext(logger, "translation corpus has malformed entries", "translation_malformed",
			logging.Int("malformed_entries", stats.Malformed),
			logging.String(logging.FieldErrorHint, "entries were skipped; the corpus may need regenerating"),
		)
	}
	return corpus, nil
}
