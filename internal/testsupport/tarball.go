package testsupport

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Entry is one file inside a fixture archive.
type Entry struct {
	Name string
	Body string
}

// TarGz renders entries as an in-memory gzip'd tar stream.
func TarGz(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		hdr := &tar.Header{
			Name:     entry.Name,
			Mode:     0o644,
			Size:     int64(len(entry.Body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", entry.Name, err)
		}
		if _, err := tw.Write([]byte(entry.Body)); err != nil {
			t.Fatalf("tar body %s: %v", entry.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// WriteTarGz writes a fixture archive to path and returns path.
func WriteTarGz(t testing.TB, path string, entries ...Entry) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, TarGz(t, entries...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
