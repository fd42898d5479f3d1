package middleware

import (
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID int64
	// OnReject answers callers who are not the admin; nil stays silent.
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only opts.AdminID through. A zero AdminID rejects
// everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	isAdmin := func(u *tele.User) bool {
		return u != nil && opts.AdminID != 0 && u.ID == opts.AdminID
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if isAdmin(c.Sender()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied",
				slog.String("status", "skip"),
				slog.String("handler", "admin_only"),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
