package logs_test

import (
	"strings"
	"testing"

	"coldlaw/internal/logs"
)

const sampleLine = `{"ts":"2025-01-02T10:00:00Z","level":"warn","msg":"no fragments to extract","component":"pipeline","run_id":"8c1f2a9e-0000","stage":"extract","event_type":"extract_empty","source":"stages.go:10"}`

func TestParseEntry(t *testing.T) {
	entry, ok := logs.ParseEntry(sampleLine)
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if entry.Level != "warn" || entry.Stage != "extract" || entry.RunID != "8c1f2a9e-0000" || entry.Component != "pipeline" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if _, ok := entry.Fields["source"]; ok {
		t.Fatal("expected source to be dropped")
	}
	if entry.Fields["event_type"] != "extract_empty" {
		t.Fatalf("unexpected fields %v", entry.Fields)
	}

	formatted := entry.Format()
	if !strings.HasPrefix(formatted, "2025-01-02T10:00:00Z WARN  [extract] no fragments to extract") {
		t.Fatalf("unexpected format %q", formatted)
	}
	if !strings.HasSuffix(formatted, "event_type=extract_empty") {
		t.Fatalf("expected attributes appended, got %q", formatted)
	}
}

func TestParseEntryRejectsPlainText(t *testing.T) {
	if _, ok := logs.ParseEntry("not json"); ok {
		t.Fatal("expected plain text to be rejected")
	}
}

func TestFilterMatch(t *testing.T) {
	entry, _ := logs.ParseEntry(sampleLine)
	cases := []struct {
		name   string
		filter logs.Filter
		want   bool
	}{
		{"empty", logs.Filter{}, true},
		{"run prefix", logs.Filter{RunID: "8c1f2a9e"}, true},
		{"other run", logs.Filter{RunID: "deadbeef"}, false},
		{"stage", logs.Filter{Stage: "extract"}, true},
		{"other stage", logs.Filter{Stage: "unpack"}, false},
		{"level below", logs.Filter{MinLevel: "info"}, true},
		{"level above", logs.Filter{MinLevel: "error"}, false},
		{"unknown level ignored", logs.Filter{MinLevel: "loud"}, true},
	}
	for _, tc := range cases {
		if got := tc.filter.Match(entry); got != tc.want {
			t.Errorf("%s: Match = %v, want %v", tc.name, got, tc.want)
		}
	}
}
