package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture runs emit against a fresh handler and returns the written line.
func capture(t *testing.T, format logFormat, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	emit(slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: format,
	})))
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func assertOrdered(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx < 0 || idx < pos {
			t.Fatalf("%q missing or out of order in %s", p, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	emit := func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "dialogue"), slog.LevelInfo, "answer.recorded",
			slog.String("cause", "unit"),
			slog.String("status", "ok"),
			slog.Int("step", 2),
		)
	}

	kv := capture(t, formatKV, emit)
	if !strings.HasPrefix(kv, "ts=") {
		t.Fatalf("kv line must start with ts: %s", kv)
	}
	assertOrdered(t, kv, "level=INFO", "component=dialogue", "event=answer.recorded", "status=ok", "rid=rid-123", "user_id=7", "step=2", "cause=unit")

	js := capture(t, formatJSON, emit)
	assertOrdered(t, js, `{"ts":`, `"level":"INFO"`, `"component":"dialogue"`, `"event":"answer.recorded"`, `"status":"ok"`, `"rid":"rid-123"`)
	if !strings.Contains(js, `"ts_unix_nano"`) {
		t.Fatalf("json line lacks ts_unix_nano: %s", js)
	}
}

func TestStructuredHandlerCompactsRID(t *testing.T) {
	raw := "123:456:789"
	ctx := WithRID(Background(), raw)
	emit := func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	}

	kv := capture(t, formatKV, emit)
	if !strings.Contains(kv, "rid="+CompactRID(raw)) || strings.Contains(kv, "rid_full=") {
		t.Fatalf("kv rid: %s", kv)
	}
	js := capture(t, formatJSON, emit)
	if !strings.Contains(js, `"rid":"`+CompactRID(raw)+`"`) || !strings.Contains(js, `"rid_full":"`+raw+`"`) {
		t.Fatalf("json rid: %s", js)
	}
}

func TestStructuredHandlerDefaultsAndDurations(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		log.LogAttrs(context.Background(), slog.LevelInfo, "forward.sent",
			slog.Duration("duration", 1500*time.Millisecond),
			slog.Duration("retry_duration", 2*time.Second),
			slog.Duration("timeout", 10*time.Second),
			slog.String("outcome", "bogus"),
		)
	})
	for _, want := range []string{"component=app", "event=forward.sent", "duration_ms=1500", "retry_duration_ms=2000", "timeout_ms=10000"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome must be dropped: %s", line)
	}
}

func TestStructuredHandlerLevelGate(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		log.Debug("hidden")
	})
	if line != "" {
		t.Fatalf("debug passed info gate: %s", line)
	}
}

func TestStructuredHandlerGroupsPrefixKeys(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		log.With("component", "http").WithGroup("req").With("method", "GET").
			Info("served", slog.Group("resp", slog.Int("code", 200)), slog.String("note", "a b"))
	})
	for _, want := range []string{"component=http", "req.method=GET", "req.resp.code=200", `req.note="a b"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
}
