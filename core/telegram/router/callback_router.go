package router

import (
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound runs for unknown uniques when the registry has no fallback.
	NotFound tele.HandlerFunc
}

// CallbackRoute routes inline button presses to the handler registered for
// their unique. Every press is acknowledged before the handler runs.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		_ = c.Respond()

		key, _ := callbacks.ParseCallbackData(cb)
		h, extras := resolveCallback(reg, key, opts.NotFound)
		return newSummary("callback."+handlerName(key), extras...).run(c, h)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: routed(handler)}
}

func resolveCallback(reg *tg.Registry, key string, notFound tele.HandlerFunc) (tele.HandlerFunc, []slog.Attr) {
	extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(key, 128))}
	if h, ok := reg.GetCallback(key); ok && h != nil {
		return h, extras
	}
	fallback := reg.CallbackNotFound()
	if fallback == nil {
		fallback = notFound
	}
	return fallback, append(extras, slog.String("cause", "not_found"))
}
