// Package forward relays collected answers to the supervisor. Delivery is best
// effort: failures are logged and counted but never reach the dialogue.
package forward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/intake/templates"
)

// Identity describes the user an answer came from.
type Identity struct {
	UserID    int64
	Username  string
	FirstName string
}

// Reference prefers the public handle and falls back to the name and numeric id.
func (i Identity) Reference() string {
	if h := strings.TrimPrefix(strings.TrimSpace(i.Username), "@"); h != "" {
		return "@" + h
	}
	if name := strings.TrimSpace(i.FirstName); name != "" {
		return fmt.Sprintf("%s (id: %d)", name, i.UserID)
	}
	return fmt.Sprintf("id: %d", i.UserID)
}

// Link returns a URL that opens a chat with the user.
func (i Identity) Link() string {
	if h := strings.TrimPrefix(strings.TrimSpace(i.Username), "@"); h != "" {
		return "https://t.me/" + h
	}
	return "tg://user?id=" + strconv.FormatInt(i.UserID, 10)
}

// Note is one answered question.
type Note struct {
	Language     string
	QuestionKey  string
	QuestionText string
	Answer       string
}

// Outcome reports what happened to a forward request.
type Outcome string

const (
	// OutcomeQueued means the message was handed to the async sender.
	OutcomeQueued Outcome = "queued"
	// OutcomeSent means the message was delivered synchronously.
	OutcomeSent Outcome = "sent"
	// OutcomeFailed means delivery failed; the failure was logged.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means no supervisor is configured.
	OutcomeSkipped Outcome = "skipped"
)

// Sink delivers a plain text message to a chat.
type Sink interface {
	SendTo(ctx context.Context, chatID int64, text string) error
}

// Queue runs delivery asynchronously; *sender.Dispatcher satisfies it.
type Queue interface {
	Enqueue(ctx context.Context, action, endpoint string, run func() error) error
}

// TextSource renders supervisor-facing templates.
type TextSource interface {
	Render(lang, key string, vars map[string]string) string
}

// Options configure a Forwarder.
type Options struct {
	SupervisorID       int64
	SupervisorLanguage string
	// Timeout bounds a synchronous delivery; 0 means 10s.
	Timeout time.Duration
}

// Forwarder formats and delivers supervisor notifications.
type Forwarder struct {
	sink   Sink
	queue  Queue
	texts  TextSource
	opts   Options
	failed atomic.Uint64
}

// New builds a Forwarder. queue may be nil for synchronous delivery.
func New(sink Sink, queue Queue, texts TextSource, opts Options) *Forwarder {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SupervisorLanguage == "" {
		opts.SupervisorLanguage = templates.DefaultLanguage
	}
	return &Forwarder{sink: sink, queue: queue, texts: texts, opts: opts}
}

// Forward relays one answer.
func (f *Forwarder) Forward(ctx context.Context, id Identity, note Note) Outcome {
	question := note.QuestionText
	if question == "" {
		question = note.QuestionKey
	}
	text := f.texts.Render(f.opts.SupervisorLanguage, templates.KeyNotifyAnswer, map[string]string{
		"user":     id.Reference(),
		"link":     id.Link(),
		"lang":     note.Language,
		"key":      note.QuestionKey,
		"question": question,
		"answer":   note.Answer,
	})
	return f.deliver(ctx, "forward.answer", id, text)
}

// Summary relays every answer of a completed run in one message.
func (f *Forwarder) Summary(ctx context.Context, id Identity, notes []Note) Outcome {
	if len(notes) == 0 {
		return OutcomeSkipped
	}
	lines := make([]string, 0, len(notes))
	for i, n := range notes {
		question := n.QuestionText
		if question == "" {
			question = n.QuestionKey
		}
		lines = append(lines, fmt.Sprintf("%d. %s\n→ %s", i+1, question, n.Answer))
	}
	text := f.texts.Render(f.opts.SupervisorLanguage, templates.KeyNotifySummary, map[string]string{
		"user":    id.Reference(),
		"link":    id.Link(),
		"lang":    notes[0].Language,
		"answers": strings.Join(lines, "\n"),
	})
	return f.deliver(ctx, "forward.summary", id, text)
}

// Failures reports how many deliveries failed synchronously.
func (f *Forwarder) Failures() uint64 {
	return f.failed.Load()
}

func (f *Forwarder) deliver(ctx context.Context, action string, id Identity, text string) Outcome {
	if f.opts.SupervisorID == 0 || f.sink == nil {
		logger.Warn(ctx, "forward", action,
			slog.String("status", "skip"),
			slog.String("cause", "no_supervisor"),
		)
		return OutcomeSkipped
	}
	run := func() error {
		sendCtx, cancel := context.WithTimeout(context.Background(), f.opts.Timeout)
		defer cancel()
		return f.sink.SendTo(sendCtx, f.opts.SupervisorID, text)
	}

	if f.queue != nil {
		err := f.queue.Enqueue(ctx, action, "sendMessage", run)
		if err == nil {
			logger.Debug(ctx, "forward", action,
				slog.String("status", "ok"),
				slog.String("mode", string(OutcomeQueued)),
				slog.Int64("user_id", id.UserID),
			)
			return OutcomeQueued
		}
		logger.Warn(ctx, "forward", "queue.fallback",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
	}

	if err := f.runSafely(run); err != nil {
		f.failed.Add(1)
		logger.Error(ctx, "forward", action,
			slog.String("status", "fail"),
			slog.Int64("user_id", id.UserID),
			slog.String("err", err.Error()),
		)
		return OutcomeFailed
	}
	logger.Info(ctx, "forward", action,
		slog.String("status", "ok"),
		slog.Int64("user_id", id.UserID),
	)
	return OutcomeSent
}

var errSinkPanic = errors.New("forward: sink panicked")

func (f *Forwarder) runSafely(run func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errSinkPanic, r)
		}
	}()
	return run()
}
