package router

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/commands"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	text     string
	callback *tele.Callback
	store    map[string]any
	acked    int
}

func newStub(text string) *stubContext {
	return &stubContext{text: text, store: map[string]any{}}
}

func (s *stubContext) Sender() *tele.User       { return &tele.User{ID: 7} }
func (s *stubContext) Chat() *tele.Chat         { return nil }
func (s *stubContext) Update() tele.Update      { return tele.Update{ID: 3, Callback: s.callback} }
func (s *stubContext) Text() string             { return s.text }
func (s *stubContext) Callback() *tele.Callback { return s.callback }
func (s *stubContext) Get(k string) any         { return s.store[k] }
func (s *stubContext) Set(k string, v any)      { s.store[k] = v }
func (s *stubContext) Respond(...*tele.CallbackResponse) error {
	s.acked++
	return nil
}

func TestCallbackRouteDispatchesByUnique(t *testing.T) {
	reg := tg.NewRegistry()
	var got int
	if err := reg.RegisterCallback("admin", func(tele.Context) error { got++; return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	route := CallbackRoute(reg, CallbackOptions{})

	c := newStub("")
	c.callback = &tele.Callback{Data: "\fadmin|lang:en"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got != 1 || c.acked != 1 {
		t.Fatalf("handled=%d acked=%d", got, c.acked)
	}
}

func TestCallbackRouteUnknownUsesRegistryFallback(t *testing.T) {
	reg := tg.NewRegistry()
	var fromRegistry, fromOptions int
	reg.SetCallbackNotFound(func(tele.Context) error { fromRegistry++; return nil })
	route := CallbackRoute(reg, CallbackOptions{NotFound: func(tele.Context) error { fromOptions++; return nil }})

	c := newStub("")
	c.callback = &tele.Callback{Data: "\fstale|x"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fromRegistry != 1 || fromOptions != 0 || c.acked != 1 {
		t.Fatalf("registry=%d options=%d acked=%d", fromRegistry, fromOptions, c.acked)
	}
}

func TestTextRoutesPreferCommandAlias(t *testing.T) {
	reg := tg.NewRegistry()
	var cmdHits, textHits int
	reg.RegisterCommand("/settings", commands.Command{
		Handler:     func(tele.Context) error { cmdHits++; return nil },
		Description: "Edit",
		Aliases:     []string{"admin"},
	})
	reg.SetTextFallback(func(tele.Context) error { textHits++; return nil })
	routes := TextRoutes(reg, TextOptions{})

	if err := routes[0].Handler(newStub("/admin now")); err != nil {
		t.Fatalf("alias: %v", err)
	}
	if err := routes[0].Handler(newStub("hello")); err != nil {
		t.Fatalf("text: %v", err)
	}
	if cmdHits != 1 || textHits != 1 {
		t.Fatalf("cmd=%d text=%d", cmdHits, textHits)
	}
}

func TestCountersSurviveQueuedReplies(t *testing.T) {
	c := newStub("hi")
	h := middleware.MessageMetricsMiddleware(func(c tele.Context) error {
		m := middleware.CountersFrom(c)
		m.MarkQueued()
		m.Sent(true)
		m.Sent(false)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	msgs, kb, queued := middleware.CountersFrom(c).Snapshot()
	if msgs != 2 || !kb || !queued {
		t.Fatalf("counters = %d %v %v", msgs, kb, queued)
	}

	var missing *middleware.Counters
	missing.Sent(true)
	if n, _, _ := missing.Snapshot(); n != 0 {
		t.Fatalf("nil counters = %d", n)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "queue full" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestHandlerNameAndErrorCode(t *testing.T) {
	for in, want := range map[string]string{"/Start": "start", "  ": "unknown", "callback.Admin Edit": "callback.admin_edit"} {
		if got := handlerName(in); got != want {
			t.Fatalf("handlerName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := errorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "QUEUE_FULL" {
		t.Fatalf("coded = %q", got)
	}
	if got := errorCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("plain = %q", got)
	}
	if got := errorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("errors.New = %q", got)
	}
}
