package unpack

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"

	"coldlaw/internal/legi"
)

// ErrFinalized is returned when an identifier is added after Finalize.
var ErrFinalized = errors.New("obsolescence accumulator already finalized")

// Accumulator collects obsolete identifiers across every processed archive.
type Accumulator struct {
	ids       map[string]struct{}
	finalized bool
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{ids: make(map[string]struct{})}
}

// Add records id as obsolete. Adding an identifier twice is a no-op.
func (a *Accumulator) Add(id string) error {
	if a.finalized {
		return ErrFinalized
	}
	a.ids[id] = struct{}{}
	return nil
}

// Len returns the number of distinct identifiers collected so far.
func (a *Accumulator) Len() int {
	return len(a.ids)
}

// Finalize freezes the accumulator and returns the immutable set. Further
// calls to Add fail with ErrFinalized; calling Finalize again returns an
// equal set.
func (a *Accumulator) Finalize() ObsoleteSet {
	a.finalized = true
	frozen := make(map[string]struct{}, len(a.ids))
	for id := range a.ids {
		frozen[id] = struct{}{}
	}
	return ObsoleteSet{ids: frozen}
}

// ObsoleteSet is the finalized union of every deletion manifest. The zero
// value is an empty set.
type ObsoleteSet struct {
	ids map[string]struct{}
}

// Contains reports whether id was declared obsolete.
func (s ObsoleteSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the set size.
func (s ObsoleteSet) Len() int {
	return len(s.ids)
}

// Identifiers returns the members in lexical order.
func (s ObsoleteSet) Identifiers() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ManifestStats counts one manifest's lines.
type ManifestStats struct {
	Lines  int
	Marked int
}

// ReadManifest adds every fragment identifier listed in a deletion manifest
// to acc. Each line is a slash-delimited path whose last segment names the
// identifier; blank lines and non-fragment lines are skipped.
func ReadManifest(r io.Reader, acc *Accumulator) (ManifestStats, error) {
	var stats ManifestStats
	br := bufio.NewReader(r)
	for {
		// ReadString has no line length cap, so one oversized line
		// cannot abort the archive.
		line, err := br.ReadString('\n')
		if line != "" {
			stats.Lines++
			id := legi.IdentifierFromPath(line)
			if legi.IsFragmentID(id) {
				if addErr := acc.Add(id); addErr != nil {
					return stats, addErr
				}
				stats.Marked++
			}
		}
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read manifest: %w", err)
		}
	}
}
