package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactToken(t *testing.T) {
	in := `Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": dial tcp`
	got := RedactToken(in)
	if strings.Contains(got, "AA-bb_CC") || !strings.Contains(got, "bot<redacted>/sendMessage") {
		t.Fatalf("got %q", got)
	}
}

func TestHandlerRedactsErrorsAndHidesPayloads(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 64)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: formatKV,
	}))

	log.LogAttrs(context.Background(), slog.LevelWarn, "reply.send",
		slog.String("err", "bot42:secret failed"),
		slog.String("payload", "my phone number"),
	)
	log.LogAttrs(context.Background(), slog.LevelDebug, "update.received",
		slog.String("payload", "visible at debug"),
	)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if strings.Contains(lines[0], "secret") || strings.Contains(lines[0], "phone") {
		t.Fatalf("leaked: %q", lines[0])
	}
	if !strings.Contains(lines[1], "visible at debug") {
		t.Fatalf("debug payload missing: %q", lines[1])
	}
}
