// Package bot adapts the intake engine to Telegram via telebot.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"
	"github.com/m3rciful/intakebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"
	"github.com/m3rciful/intakebot/core/telegram/middleware"
	"github.com/m3rciful/intakebot/core/telegram/router"
	"github.com/m3rciful/intakebot/intake/engine"

	tele "gopkg.in/telebot.v4"
)

// Handler is the engine as seen by the transport.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) []engine.Reply
}

// Runner executes jobs in per-user order; *lanes.Lanes satisfies it.
type Runner interface {
	Submit(key int64, job func()) error
}

// Options configure the adapter.
type Options struct {
	SupervisorID int64
	// SettingsCommand is the admin entry command; "/settings" when empty.
	SettingsCommand string
	// DeniedText returns the reply for callers rejected by the admin gate.
	DeniedText func() string
}

// Bot converts telebot updates into engine events.
type Bot struct {
	handler Handler
	runner  Runner
	opts    Options
}

// New builds a Bot.
func New(h Handler, runner Runner, opts Options) *Bot {
	if strings.TrimSpace(opts.SettingsCommand) == "" {
		opts.SettingsCommand = "/settings"
	}
	if !strings.HasPrefix(opts.SettingsCommand, "/") {
		opts.SettingsCommand = "/" + opts.SettingsCommand
	}
	return &Bot{handler: h, runner: runner, opts: opts}
}

// Register adds the bot's commands, text fallback, and the admin callback to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.onKind(engine.KindStart),
		Description: "Start over",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.onKind(engine.KindCancel),
		Description: "Cancel the questionnaire",
	})
	reg.RegisterCommand(b.opts.SettingsCommand, commands.Command{
		Handler:     b.onKind(engine.KindSettings),
		Description: "Edit bot texts",
		AdminOnly:   true,
	})
	reg.SetTextFallback(b.onKind(engine.KindText))
	// Buttons from an older deployment carry other uniques; the press is already
	// acknowledged by the router.
	reg.SetCallbackNotFound(func(tele.Context) error { return nil })
	return reg.RegisterCallback(callbackUnique, b.onCallback)
}

// Routes returns the telebot routes for commands, text, media, and callbacks.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       b.opts.SupervisorID,
		OnAdminReject: b.onDenied,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Media: b.onKind(engine.KindText),
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return routes
}

func (b *Bot) onKind(kind engine.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev, ok := eventFrom(c, kind)
		if !ok {
			return nil
		}
		return b.dispatch(c, ev)
	}
}

func (b *Bot) onCallback(c tele.Context) error {
	ev, ok := eventFrom(c, engine.KindButton)
	if !ok {
		return nil
	}
	_, payload := callbacks.ParseCallbackData(c.Callback())
	ev.Text = ""
	ev.Data = joinSelector(callbackUnique, payload)
	return b.dispatch(c, ev)
}

func (b *Bot) onDenied(c tele.Context) error {
	text := "Access denied."
	if b.opts.DeniedText != nil {
		text = b.opts.DeniedText()
	}
	return tghelpers.SendText(c, text)
}

// dispatch queues the event on the sender's lane and returns immediately; replies
// are sent from the lane so they keep the order of the events.
func (b *Bot) dispatch(c tele.Context, ev engine.Event) error {
	ctx := tghelpers.BuildContext(c)
	counters := middleware.CountersFrom(c)
	counters.MarkQueued()
	return b.runner.Submit(ev.UserID, func() {
		replies := b.handler.Handle(ctx, ev)
		b.send(ctx, c, counters, replies)
	})
}

func (b *Bot) send(ctx context.Context, c tele.Context, counters *middleware.Counters, replies []engine.Reply) {
	for i, r := range replies {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		var err error
		markup := render(r.Keyboard)
		if markup != nil {
			err = c.Send(r.Text, markup)
		} else {
			err = c.Send(r.Text)
		}
		if err != nil {
			logger.Error(ctx, "tg", "reply.send",
				slog.String("status", "fail"),
				slog.Int("index", i),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			continue
		}
		counters.Sent(markup != nil)
	}
	msgs, kb, _ := counters.Snapshot()
	logger.Debug(ctx, "tg", "reply.sent", slog.Int("messages", msgs), slog.Bool("kb", kb))
}

func eventFrom(c tele.Context, kind engine.Kind) (engine.Event, bool) {
	user := c.Sender()
	if user == nil || user.IsBot {
		return engine.Event{}, false
	}
	return engine.Event{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		Kind:      kind,
		Text:      c.Text(),
	}, true
}
