package router

import (
	"strings"

	tg "github.com/m3rciful/intakebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls how text and media updates are handled.
type TextOptions struct {
	// Text receives free text that is not a registered command.
	Text tele.HandlerFunc
	// Media receives messages without text (photos, stickers, documents...).
	Media tele.HandlerFunc
}

// TextRoutes builds handlers for free text and media. Slash-prefixed text that
// resolves to a registered command alias runs that command; any other text goes to
// the registry fallback or opts.Text.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	onText := func(c tele.Context) error {
		if key, h, ok := commandAlias(reg, c.Text()); ok {
			return newSummary(key).run(c, h)
		}
		fallback := opts.Text
		if reg != nil && reg.TextFallback() != nil {
			fallback = reg.TextFallback()
		}
		if fallback == nil {
			return newSummary("unknown_text").skip(c)
		}
		return newSummary("text").run(c, fallback)
	}

	onMedia := func(c tele.Context) error {
		if opts.Media == nil {
			return newSummary("unexpected_media").skip(c)
		}
		return newSummary("media").run(c, opts.Media)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: routed(onText)},
		{Endpoint: tele.OnMedia, Handler: routed(onMedia)},
	}
}

// commandAlias resolves text such as "/Settings@bot now" to a registered command.
func commandAlias(reg *tg.Registry, text string) (string, tele.HandlerFunc, bool) {
	if reg == nil || !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	key, cmd, ok := reg.LookupCommand(strings.Fields(text)[0])
	if !ok || cmd.Handler == nil {
		return "", nil, false
	}
	return key, cmd.Handler, true
}
