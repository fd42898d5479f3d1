package helpers

import (
	"context"

	"github.com/m3rciful/intakebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// UpdateMeta identifies an update in logs.
type UpdateMeta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
}

// MetaOf extracts the identifiers of the update carried by c. An rid stored by
// the logger middleware wins over a freshly built one.
func MetaOf(c tele.Context) UpdateMeta {
	m := UpdateMeta{UpdateID: c.Update().ID}
	if chat := c.Chat(); chat != nil {
		m.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		m.UserID = user.ID
	}
	m.RID, _ = c.Get("rid").(string)
	if m.RID == "" {
		m.RID = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	return m
}

// NewContext derives a fresh logging context for m and stores it on c.
func NewContext(c tele.Context, m UpdateMeta) context.Context {
	ctx := logger.WithRID(logger.Background(), m.RID)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// StoreContext attaches ctx to c for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored logging context of c, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	return NewContext(c, MetaOf(c))
}

// WithHandler tags the stored context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.ScopeFrom(ctx).Handler == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
