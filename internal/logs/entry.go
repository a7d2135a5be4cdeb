package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"coldlaw/internal/logging"
)

// Entry is one decoded JSON log record.
type Entry struct {
	Time      string
	Level     string
	Message   string
	Component string
	RunID     string
	Stage     string
	// Fields holds every other top-level attribute.
	Fields map[string]any
}

// ParseEntry decodes a JSON log line. ok is false for lines that are not
// JSON objects.
func ParseEntry(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	take := func(key string) string {
		value, _ := raw[key].(string)
		delete(raw, key)
		return value
	}
	entry := Entry{
		Time:      take("ts"),
		Level:     take(slog.LevelKey),
		Message:   take(slog.MessageKey),
		Component: take(logging.FieldComponent),
		RunID:     take(logging.FieldRunID),
		Stage:     take(logging.FieldStage),
	}
	delete(raw, slog.SourceKey)
	entry.Fields = raw
	return entry, true
}

// Format renders the entry on one line with attributes sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", e.Time, strings.ToUpper(e.Level))
	if e.Stage != "" {
		fmt.Fprintf(&b, " [%s]", e.Stage)
	} else if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

// Filter selects entries. Empty fields match everything.
type Filter struct {
	RunID string
	Stage string
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether e passes the filter. Run ids match by prefix so the
// short ids printed by `coldlaw history` work.
func (f Filter) Match(e Entry) bool {
	if f.RunID != "" && !strings.HasPrefix(e.RunID, f.RunID) {
		return false
	}
	if f.Stage != "" && e.Stage != f.Stage {
		return false
	}
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[strings.ToLower(e.Level)] < want {
			return false
		}
	}
	return true
}
