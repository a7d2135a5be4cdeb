package legi

import (
	"path/filepath"
	"testing"
)

func TestShard(t *testing.T) {
	cases := map[string]string{
		"LEGIARTI000000000042": "LEGIARTI0000000",
		"LEGIARTI":             "LEGIARTI",
		"":                     "",
	}
	for id, want := range cases {
		if got := Shard(id); got != want {
			t.Fatalf("Shard(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestIdentifierFromPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"legi/global/code_et_TNC_en_vigueur/LEGIARTI000000000001", "LEGIARTI000000000001"},
		{"a/b/LEGIARTI000000000001.xml", "LEGIARTI000000000001"},
		{"  LEGIARTI000000000002\r", "LEGIARTI000000000002"},
		{"", ""},
		{"   ", ""},
		{"dir/", "dir"},
	}
	for _, tc := range cases {
		if got := IdentifierFromPath(tc.in); got != tc.want {
			t.Fatalf("IdentifierFromPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFragmentPath(t *testing.T) {
	got := FragmentPath("/data", "LEGIARTI000000000042")
	want := filepath.Join("/data", "LEGIARTI0000000", "LEGIARTI000000000042.xml")
	if got != want {
		t.Fatalf("unexpected fragment path: got %q want %q", got, want)
	}
}

func TestEntryClassification(t *testing.T) {
	if !IsInForceEntry("20240101/legi/global/code_et_TNC_en_vigueur/code_en_vigueur/LEGI/TEXT/00/LEGIARTI000000000042.xml") {
		t.Fatal("expected in-force fragment entry")
	}
	if IsInForceEntry("20240101/legi/global/code_et_TNC_non_vigueur/LEGIARTI000000000042.xml") {
		t.Fatal("expected entry outside marker to be rejected")
	}
	if IsInForceEntry("20240101/legi/global/code_et_TNC_en_vigueur/LEGITEXT000000000001.xml") {
		t.Fatal("expected non-article entry to be rejected")
	}
	if !IsManifestEntry("20240101/liste_suppression_legi.dat") {
		t.Fatal("expected manifest entry")
	}
	if IsManifestEntry("20240101/liste_suppression_legi.dat.bak") {
		t.Fatal("unexpected manifest match")
	}
}
