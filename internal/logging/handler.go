package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// lineHandler writes one line per record, either as key=value console text
// or as a JSON object. Component, run id, and source are lifted out of the
// attributes in both formats: the console renders them as a prefix and JSON
// places them right after the message.
type lineHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	format format
	level  slog.Level
	caller bool
	attrs  []field
	groups []string
}

type field struct {
	key   string
	value slog.Value
}

// runScope holds the attributes that identify which run wrote a line.
type runScope struct {
	component string
	runID     string
	source    string
}

func newLineHandler(out io.Writer, f format, level slog.Level, caller bool) *lineHandler {
	return &lineHandler{mu: &sync.Mutex{}, out: out, format: f, level: level, caller: caller}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]field(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = appendAttr(clone.attrs, h.groups, attr)
	}
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *lineHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendAttr(fields, h.groups, attr)
		return true
	})
	scope, rest := splitScope(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var caller string
	if h.caller {
		if src := record.Source(); src != nil && src.File != "" {
			caller = filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
		}
	}

	var buf bytes.Buffer
	if h.format == formatJSON {
		writeJSONLine(&buf, ts, record, scope, caller, rest)
	} else {
		writeConsoleLine(&buf, ts, record, scope, caller, rest)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func appendAttr(dst []field, groups []string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = appendAttr(dst, inner, member)
		}
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(append(append([]string(nil), groups...), key), ".")
	}
	return append(dst, field{key: key, value: attr.Value})
}

// splitScope pulls the first component, run id, and source out of fields.
func splitScope(fields []field) (runScope, []field) {
	var scope runScope
	rest := fields[:0]
	for _, f := range fields {
		var slot *string
		switch f.key {
		case FieldComponent:
			slot = &scope.component
		case FieldRunID:
			slot = &scope.runID
		case FieldSource:
			slot = &scope.source
		default:
			rest = append(rest, f)
			continue
		}
		if *slot == "" {
			*slot = plainValue(f.value)
		}
	}
	return scope, rest
}

func writeConsoleLine(buf *bytes.Buffer, ts time.Time, record slog.Record, scope runScope, caller string, fields []field) {
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')

	if scope != (runScope{}) {
		buf.WriteString(scope.component)
		if scope.runID != "" {
			buf.WriteByte('[')
			buf.WriteString(shortRunID(scope.runID))
			buf.WriteByte(']')
		}
		if scope.source != "" {
			if scope.component != "" || scope.runID != "" {
				buf.WriteByte(' ')
			}
			buf.WriteString(consoleValue(scope.source))
		}
		buf.WriteString(": ")
	}

	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if caller != "" {
		buf.WriteString(" [")
		buf.WriteString(caller)
		buf.WriteByte(']')
	}
	for _, f := range fields {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(consoleValue(plainValue(f.value)))
	}
	buf.WriteByte('\n')
}

func writeJSONLine(buf *bytes.Buffer, ts time.Time, record slog.Record, scope runScope, caller string, fields []field) {
	buf.WriteByte('{')
	writeJSONField(buf, "ts", ts.UTC().Format(time.RFC3339), true)
	writeJSONField(buf, "level", strings.ToLower(levelLabel(record.Level)), false)
	writeJSONField(buf, "msg", record.Message, false)
	if scope.component != "" {
		writeJSONField(buf, FieldComponent, scope.component, false)
	}
	if scope.runID != "" {
		writeJSONField(buf, FieldRunID, scope.runID, false)
	}
	if scope.source != "" {
		writeJSONField(buf, FieldSource, scope.source, false)
	}
	if caller != "" {
		writeJSONField(buf, "caller", caller, false)
	}
	for _, f := range fields {
		writeJSONField(buf, f.key, jsonValue(f.value), false)
	}
	buf.WriteString("}\n")
}

func writeJSONField(buf *bytes.Buffer, key string, value any, first bool) {
	if !first {
		buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	v, err := json.Marshal(value)
	if err != nil {
		v, _ = json.Marshal(fmt.Sprint(value))
	}
	buf.Write(v)
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		if f := v.Float64(); !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case slog.KindAny:
		if _, ok := v.Any().(error); !ok {
			if _, err := json.Marshal(v.Any()); err == nil {
				return v.Any()
			}
		}
	}
	return plainValue(v)
}

func consoleValue(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

// shortRunID keeps console lines narrow; JSON lines carry the full id.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
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
