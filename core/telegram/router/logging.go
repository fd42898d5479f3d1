package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary is the one "handler.handled" line written per routed update.
type summary struct {
	name  string
	start time.Time
	// skipped marks updates that reached no handler.
	skipped bool
	extras  []slog.Attr
}

func newSummary(name string, extras ...slog.Attr) summary {
	return summary{name: handlerName(name), start: time.Now(), extras: extras}
}

// run tags the update with the handler name, runs h and logs the result.
func (s summary) run(c tele.Context, h tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.name)
	var err error
	if h != nil {
		err = h(c)
	}
	s.log(c, err)
	return err
}

func (s summary) skip(c tele.Context) error {
	s.skipped = true
	s.log(c, nil)
	return nil
}

func (s summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	msgs, kb, queued := middleware.CountersFrom(c).Snapshot()

	status, outcome := "ok", "ok"
	switch {
	case s.skipped:
		status = "skip"
	case err != nil:
		status, outcome = "fail", "fail"
	}

	attrs := make([]slog.Attr, 0, 10+len(s.extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Bool("queued", queued),
		slog.Duration("duration", time.Since(s.start)),
	)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
			slog.String("cause", s.name),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(name), "_")
}

// errorCode names err by its Code() when it has one, otherwise by its type.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
