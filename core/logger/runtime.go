package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	scopeKey ctxKey = iota
	loggerKey
)

// Scope holds the correlation fields every log line inherits from its context.
type Scope struct {
	RID      string
	RunID    string
	Handler  string
	UpdateID int
	UserID   int64
	ChatID   int64
}

// ScopeFrom returns the scope carried by ctx; the zero Scope when none.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	s, _ := ctx.Value(scopeKey).(Scope)
	return s
}

func withScope(ctx context.Context, edit func(*Scope)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	s := ScopeFrom(ctx)
	edit(&s)
	return context.WithValue(ctx, scopeKey, s)
}

// WithLogger stores log in ctx; FromContext returns it.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the update correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withScope(ctx, func(s *Scope) { s.RID = rid })
}

// WithUpdateMeta sets the update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withScope(ctx, func(s *Scope) {
		s.UpdateID, s.UserID, s.ChatID = updateID, userID, chatID
	})
}

// WithHandler sets the handler name; empty names leave ctx unchanged.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return orBackground(ctx)
	}
	return withScope(ctx, func(s *Scope) { s.Handler = handler })
}

// WithRun sets the intake run id so every line of one questionnaire groups together.
func WithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return orBackground(ctx)
	}
	return withScope(ctx, func(s *Scope) { s.RunID = runID })
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// fields returns the non-zero scope values keyed by log field name.
func (s Scope) fields() map[string]any {
	out := make(map[string]any, 6)
	if s.RID != "" {
		out["rid"] = s.RID
	}
	if s.RunID != "" {
		out["run_id"] = s.RunID
	}
	if s.Handler != "" {
		out["handler"] = s.Handler
	}
	if s.UpdateID != 0 {
		out["update_id"] = s.UpdateID
	}
	if s.UserID != 0 {
		out["user_id"] = s.UserID
	}
	if s.ChatID != 0 {
		out["chat_id"] = s.ChatID
	}
	return out
}
