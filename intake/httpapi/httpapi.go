// Package httpapi serves a small read-only status surface next to the bot.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/intakebot/core/buildinfo"
	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/intake/templates"
)

// TextSource exposes the current text mapping.
type TextSource interface {
	Snapshot() templates.Texts
}

// NewRouter builds the chi router.
func NewRouter(texts TextSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Current())
	})
	r.Route("/texts", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, texts.Snapshot())
		})
		r.Get("/{lang}", func(w http.ResponseWriter, req *http.Request) {
			lang := chi.URLParam(req, "lang")
			keys, ok := texts.Snapshot()[lang]
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown language"})
				return
			}
			writeJSON(w, http.StatusOK, keys)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug(r.Context(), "http", "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}

// Server runs the router until its context ends.
type Server struct {
	srv *http.Server
}

// NewServer prepares a server on addr.
func NewServer(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run listens until ctx is done, then shuts down within five seconds.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	logger.Info(ctx, "http", "listen", slog.String("listen", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "http", "shutdown", slog.String("status", "fail"), slog.String("err", err.Error()))
		return err
	}
	logger.Info(ctx, "http", "shutdown", slog.String("status", "ok"))
	return nil
}
