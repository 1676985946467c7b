package logutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelTrace)
	Trace(logger, "merge", "index", 1)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Fatalf("missing TRACE level: %s", out)
	}
	if !strings.Contains(out, "source=logutil_test.go:") {
		t.Fatalf("source not attributed to caller: %s", out)
	}
}

func TestTraceDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug)
	Trace(logger, "merge")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := slog.Default()
	if OrDiscard(l) != l {
		t.Fatal("OrDiscard replaced a non-nil logger")
	}
}

type ctxKey struct{}

type ctxHandler struct {
	slog.Handler
	seen *any
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.seen = ctx.Value(ctxKey{})
	return h.Handler.Handle(ctx, r)
}

func TestTraceContextPassesContext(t *testing.T) {
	var buf bytes.Buffer
	var seen any
	logger := slog.New(ctxHandler{Handler: NewLogger(&buf, LevelTrace).Handler(), seen: &seen})
	TraceContext(context.WithValue(context.Background(), ctxKey{}, "chunk-3"), logger, "reading chunk")
	if seen != "chunk-3" {
		t.Fatalf("handler saw context value %v", seen)
	}
	if !strings.Contains(buf.String(), "source=logutil_test.go:") {
		t.Fatalf("source not attributed to caller: %s", buf.String())
	}
}
