package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// receipts remembers recently logged update ids for ttl.
type receipts struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[int]time.Time
}

var received = &receipts{ttl: 10 * time.Second, seen: make(map[int]time.Time)}

// first reports whether id was not logged within ttl, and records it.
func (r *receipts) first(id int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, at := range r.seen {
		if now.Sub(at) > r.ttl {
			delete(r.seen, k)
		}
	}
	if _, dup := r.seen[id]; dup {
		return false
	}
	r.seen[id] = now
	return true
}

// LoggerMiddleware stores the update's logging context and rid, then logs one
// sampled receipt line per update_id. Routes apply it again on top of the global
// chain, so receipts are deduplicated.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		meta := tghelpers.MetaOf(c)
		c.Set("rid", meta.RID)
		ctx := tghelpers.NewContext(c, meta)

		if logger.ShouldSampleDebug() && received.first(meta.UpdateID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c, meta)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, meta tghelpers.UpdateMeta) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", meta.RID),
		slog.Int("update_id", meta.UpdateID),
	}
	if chat := c.Chat(); chat != nil && meta.ChatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", meta.ChatID), slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && meta.UserID != 0 {
		attrs = append(attrs,
			slog.Int64("user_id", meta.UserID),
			slog.String("username", logger.SanitizeLimit(u.Username, 64)),
			slog.String("lang", u.LanguageCode),
		)
	}

	upd := c.Update()
	payload := ""
	switch {
	case upd.Callback != nil:
		var key string
		key, payload = callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
	case upd.Message != nil:
		payload = c.Text()
	}
	return append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
}
