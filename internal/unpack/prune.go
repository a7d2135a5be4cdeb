package unpack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"coldlaw/internal/legi"
)

// PruneStats reports a Prune pass.
type PruneStats struct {
	Marked  int
	Deleted int
}

// Prune removes the fragment file of every identifier in set. Identifiers
// without a file on disk are ignored, so pruning twice is harmless.
func Prune(ctx context.Context, root string, set ObsoleteSet) (PruneStats, error) {
	stats := PruneStats{Marked: set.Len()}
	for _, id := range set.Identifiers() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := os.Remove(legi.FragmentPath(root, id))
		switch {
		case err == nil:
			stats.Deleted++
		case errors.Is(err, os.ErrNotExist):
		default:
			return stats, fmt.Errorf("prune %s: %w", id, err)
		}
	}
	return stats, nil
}

// ListFragments returns every fragment path under root in lexical order.
func ListFragments(root string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(root, "*", "*"+legi.FragmentExt))
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	filtered := paths[:0]
	for _, p := range paths {
		if legi.IsFragmentID(filepath.Base(p)) {
			filtered = append(filtered, p)
		}
	}
	slices.Sort(filtered)
	return filtered, nil
}
