package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler records every log entry it receives
type CaptureHandler struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewCaptureHandler creates an empty CaptureHandler
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{mu: &sync.Mutex{}, records: &[]LogRecord{}}
}

// Enabled implements slog.Handler
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

// WithAttrs implements slog.Handler; children share the same record buffer
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &CaptureHandler{mu: h.mu, records: h.records, attrs: merged}
}

// WithGroup implements slog.Handler
func (h *CaptureHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of the captured entries
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// Contains reports whether any entry message contains msg
func (h *CaptureHandler) Contains(msg string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, msg) {
			return true
		}
	}
	return false
}

// NewTestLogger returns a logger writing into a CaptureHandler
func NewTestLogger(t *testing.T) (*slog.Logger, *CaptureHandler) {
	t.Helper()
	h := NewCaptureHandler()
	return slog.New(h), h
}

// AssertLogContains fails the test when no entry at level contains msg
func AssertLogContains(t *testing.T, h *CaptureHandler, level slog.Level, msg string) {
	t.Helper()
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			return
		}
	}
	t.Errorf("expected %s log containing %q", level, msg)
	for _, r := range h.Records() {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}
