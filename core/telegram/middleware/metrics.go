package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// Counters records what was sent in answer to one update. Replies may be sent
// from a worker after the handler returned, so the fields are atomic.
type Counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
	queued   atomic.Bool
}

// Sent counts one delivered reply.
func (m *Counters) Sent(withKeyboard bool) {
	if m == nil {
		return
	}
	m.messages.Add(1)
	if withKeyboard {
		m.keyboard.Store(true)
	}
}

// MarkQueued notes that the replies are produced off the update goroutine.
func (m *Counters) MarkQueued() {
	if m != nil {
		m.queued.Store(true)
	}
}

// Snapshot returns the reply count, keyboard usage, and the queued flag.
func (m *Counters) Snapshot() (int, bool, bool) {
	if m == nil {
		return 0, false, false
	}
	return int(m.messages.Load()), m.keyboard.Load(), m.queued.Load()
}

// MessageMetricsMiddleware attaches fresh Counters to every update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(countersKey, &Counters{})
		return next(c)
	}
}

// CountersFrom returns the update's Counters, or nil when the middleware is
// not installed. All Counters methods accept a nil receiver.
func CountersFrom(c tele.Context) *Counters {
	if c == nil {
		return nil
	}
	m, _ := c.Get(countersKey).(*Counters)
	return m
}
