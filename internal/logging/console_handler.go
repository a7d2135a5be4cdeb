package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders records for a terminal: one header line followed
// by an indented field list. Info and above show a curated subset of
// fields; debug records show every field verbatim.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	addSource bool
	// preset holds attrs from With, already flattened under their groups.
	preset []kv
	prefix string
}

type kv struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append(append([]kv(nil), h.preset...), flatten(h.prefix, attrs)...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.Enabled(ctx, record.Level) {
		return nil
	}
	fields := append([]kv(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, flatten(h.prefix, []slog.Attr{attr})...)
		return true
	})
	fields = lastValueWins(fields)

	var component, stage, archive string
	body := make([]kv, 0, len(fields))
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainString(f.value)
			continue
		case FieldStage:
			stage = plainString(f.value)
		case FieldArchive:
			archive = plainString(f.value)
		}
		body = append(body, f)
	}

	var b strings.Builder
	h.writeHeader(&b, record, component, subject(stage, archive))
	if record.Level < slog.LevelInfo {
		writeDebugFields(&b, body)
	} else {
		writeInfoFields(&b, body)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) writeHeader(b *strings.Builder, record slog.Record, component, subj string) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(formatTimestamp(ts) + " " + levelLabel(record.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subj != "" {
		b.WriteString(" " + subj)
	}
	b.WriteString(" – " + msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
}

func writeDebugFields(b *strings.Builder, fields []kv) {
	for _, f := range fields {
		if !skipInfoKey(f.key) {
			fmt.Fprintf(b, "    %s: %s\n", f.key, formatValue(f.value))
		}
	}
}

func writeInfoFields(b *strings.Builder, fields []kv) {
	shown, hidden := selectInfoFields(fields, infoAttrLimit)
	for _, f := range shown {
		fmt.Fprintf(b, "    - %s: %s\n", f.label, f.value)
	}
	switch {
	case hidden == 1:
		b.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(b, "    + %d more fields hidden\n", hidden)
	}
}

// subject renders "Stage · archive" for the header.
func subject(stage, archive string) string {
	stage, archive = strings.TrimSpace(stage), strings.TrimSpace(archive)
	switch {
	case stage == "":
		return archive
	case archive == "":
		return capitalizeASCII(stage)
	default:
		return capitalizeASCII(stage) + " · " + archive
	}
}

// flatten expands group attrs into dotted keys under prefix.
func flatten(prefix string, attrs []slog.Attr) []kv {
	var out []kv
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		v := attr.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			inner := prefix
			if attr.Key != "" {
				inner += attr.Key + "."
			}
			out = append(out, flatten(inner, v.Group())...)
			continue
		}
		out = append(out, kv{key: prefix + attr.Key, value: v})
	}
	return out
}

// lastValueWins drops empty keys and collapses repeated keys, keeping the
// position of the first occurrence and the value of the last.
func lastValueWins(fields []kv) []kv {
	seen := make(map[string]int, len(fields))
	out := make([]kv, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := seen[f.key]; ok {
			out[i].value = f.value
			continue
		}
		seen[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
