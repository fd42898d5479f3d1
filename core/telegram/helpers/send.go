package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the queue SendText goes through; nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// SendText sends raw text (no parse mode) to the current recipient through the
// shared dispatcher. Replies that must keep their order should use c.Send directly.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	args := []any{}
	if len(opts) > 0 && opts[0] != nil {
		args = append(args, opts[0])
	}
	return enqueue(c, "send.text", "sendMessage", func() error {
		return c.Send(text, args...)
	})
}

// enqueue hands run to the dispatcher. A full or closed queue degrades to a
// synchronous send rather than losing the message.
func enqueue(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	if !errors.Is(err, sender.ErrQueueFull) && !errors.Is(err, sender.ErrQueueClosed) {
		return err
	}
	logger.Warn(ctx, "tg.sender", "queue.fallback",
		slog.String("action", action),
		slog.String("endpoint", endpoint),
		slog.String("err", err.Error()),
	)
	return run()
}
