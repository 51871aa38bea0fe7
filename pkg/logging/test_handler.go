package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

// TestHandler is a slog.Handler that writes records to testing.TB.Log.
type TestHandler struct {
	tb     testing.TB
	level  slog.Leveler
	attrs  []string
	groups []string
}

// NewTestHandler creates a handler logging at level and above to tb.
func NewTestHandler(tb testing.TB, level slog.Leveler) *TestHandler {
	return &TestHandler{tb: tb, level: level}
}

// Enabled reports whether level reaches the handler's minimum level.
func (h *TestHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record as "LEVEL message key=value ..." and logs it.
func (h *TestHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Level.String())
	b.WriteString(" ")
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(h.format(a))
		return true
	})

	h.tb.Helper()
	h.tb.Log(b.String())
	return nil
}

// format renders a as " key=value", qualified by the current groups.
func (h *TestHandler) format(a slog.Attr) string {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	return fmt.Sprintf(" %s%s=%v", prefix, a.Key, a.Value)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]string{}, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.format(a))
	}
	return &clone
}

// WithGroup returns a handler that qualifies keys with name.
func (h *TestHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}
