package router

import (
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures the admin gate for AdminOnly commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command. The admin gate sits
// outside the logger so rejected callers are logged by the gate alone.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for endpoint, cmd := range cmds {
		h := wrap(endpoint, cmd.Handler)
		if cmd.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
	}

	logger.Info(logger.Background(), "tg.wire", "complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", reg.CallbackCount()),
	)
	return routes
}

func wrap(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return routed(func(c tele.Context) error {
		return newSummary(name).run(c, h)
	})
}

// routed installs the per-route logger and panic recovery around h.
func routed(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.LoggerMiddleware(middleware.RecoverMiddleware(h))
}
