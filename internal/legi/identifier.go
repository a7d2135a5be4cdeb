package legi

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// FragmentPrefix is the filename prefix of article fragments.
	FragmentPrefix = "LEGIARTI"
	// InForceMarker is the archive path segment holding currently applicable law.
	InForceMarker = "code_et_TNC_en_vigueur"
	// ManifestName is the per-archive deletion manifest filename.
	ManifestName = "liste_suppression_legi.dat"
	// ShardLength is the identifier prefix length used as the shard directory.
	ShardLength = 15
	// FragmentExt is the extension fragments are stored under.
	FragmentExt = ".xml"
)

// IsFragmentID reports whether value names an article fragment.
func IsFragmentID(value string) bool {
	return strings.HasPrefix(value, FragmentPrefix)
}

// Shard returns the storage grouping for an identifier. Identifiers shorter
// than ShardLength are their own shard.
func Shard(id string) string {
	if len(id) <= ShardLength {
		return id
	}
	return id[:ShardLength]
}

// IdentifierFromPath returns the identifier named by the last segment of a
// slash-delimited archive path or manifest line, without the .xml extension.
func IdentifierFromPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, FragmentExt)
}

// FragmentPath returns the location of a fragment under the unpack root.
func FragmentPath(root, id string) string {
	return filepath.Join(root, Shard(id), id+FragmentExt)
}

// IsInForceEntry reports whether an archive entry path lies in the
// currently-applicable subtree and names an article fragment.
func IsInForceEntry(name string) bool {
	if !strings.Contains(name, InForceMarker) {
		return false
	}
	return IsFragmentID(path.Base(name))
}

// IsManifestEntry reports whether an archive entry is a deletion manifest.
func IsManifestEntry(name string) bool {
	return path.Base(name) == ManifestName
}
