package unpack

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"coldlaw/internal/fileutil"
	"coldlaw/internal/legi"
	"coldlaw/internal/logging"
)

// Stats aggregates unpacking counters.
type Stats struct {
	Archives         int
	Entries          int
	FragmentsWritten int
	ManifestLines    int
	Marked           int
}

func (s *Stats) add(other Stats) {
	s.Archives += other.Archives
	s.Entries += other.Entries
	s.FragmentsWritten += other.FragmentsWritten
	s.ManifestLines += other.ManifestLines
	s.Marked += other.Marked
}

// Unpacker writes in-force fragments under a root directory.
type Unpacker struct {
	root   string
	logger *slog.Logger
}

// New returns an Unpacker rooted at root.
func New(root string, logger *slog.Logger) *Unpacker {
	return &Unpacker{root: root, logger: logging.NewComponentLogger(logger, "unpack")}
}

// Root returns the fragment tree root.
func (u *Unpacker) Root() string {
	return u.root
}

// UnpackAll streams every archive in order, collecting manifest identifiers
// into acc. The caller finalizes acc once UnpackAll returns.
func (u *Unpacker) UnpackAll(ctx context.Context, archivePaths []string, acc *Accumulator) (Stats, error) {
	var total Stats
	sampler := logging.NewProgressSampler(10)
	for idx, path := range archivePaths {
		stats, err := u.Unpack(ctx, path, acc)
		total.add(stats)
		if err != nil {
			return total, err
		}
		percent := logging.Percent(idx+1, len(archivePaths))
		if sampler.ShouldLog(percent, "unpack") {
			u.logger.Info("unpack progress",
				logging.Float64(logging.FieldProgressPercent, percent),
				logging.Int("fragments_written", total.FragmentsWritten),
				logging.Int("obsolete_ids", acc.Len()),
			)
		}
	}
	return total, nil
}

// Unpack streams one gzip'd tar archive. Fragment bytes are copied verbatim;
// an existing fragment with the same identifier is replaced.
func (u *Unpacker) Unpack(ctx context.Context, archivePath string, acc *Accumulator) (Stats, error) {
	stats := Stats{Archives: 1}
	name := filepath.Base(archivePath)

	file, err := os.Open(archivePath)
	if err != nil {
		return stats, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return stats, fmt.Errorf("%s: gzip: %w", name, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%s: read tar: %w", name, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		stats.Entries++

		switch {
		case legi.IsInForceEntry(hdr.Name):
			id := legi.IdentifierFromPath(hdr.Name)
			if err := writeFragment(u.root, id, tr); err != nil {
				return stats, fmt.Errorf("%s: write %s: %w", name, id, err)
			}
			stats.FragmentsWritten++
		case legi.IsManifestEntry(hdr.Name):
			manifest, err := ReadManifest(tr, acc)
			stats.ManifestLines += manifest.Lines
			stats.Marked += manifest.Marked
			if err != nil {
				return stats, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	u.logger.Debug("archive unpacked",
		logging.String(logging.FieldArchive, name),
		logging.Int("entries", stats.Entries),
		logging.Int("fragments_written", stats.FragmentsWritten),
		logging.Int("obsolete_ids", stats.Marked),
		logging.String(logging.FieldEventType, "archive_unpacked"),
	)
	return stats, nil
}

func writeFragment(root, id string, r io.Reader) error {
	_, err := fileutil.WriteAtomic(legi.FragmentPath(root, id), r, 0o644)
	return err
}
