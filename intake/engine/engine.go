// Package engine is the transport-independent entry point of the intake bot. It
// resolves the user's session, routes each event to the dialogue or to the admin
// flow, and saves the result.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/intake/admin"
	"github.com/m3rciful/intakebot/intake/dialogue"
	"github.com/m3rciful/intakebot/intake/forward"
	"github.com/m3rciful/intakebot/intake/message"
	"github.com/m3rciful/intakebot/intake/session"
)

// Kind classifies an inbound event.
type Kind string

const (
	KindStart    Kind = "start"
	KindCancel   Kind = "cancel"
	KindSettings Kind = "settings"
	KindText     Kind = "text"
	KindButton   Kind = "button"
)

// Event is one inbound update, already stripped of transport details.
type Event struct {
	UserID    int64
	Username  string
	FirstName string
	Kind      Kind
	Text      string
	// Data is the selector of a pressed inline button.
	Data string
}

// Identity returns the sender description used for forwarding.
func (e Event) Identity() forward.Identity {
	return forward.Identity{UserID: e.UserID, Username: e.Username, FirstName: e.FirstName}
}

// Reply is one outgoing message to the event's sender.
type Reply = message.Reply

// Engine composes the session store with both state machines.
type Engine struct {
	store    session.Store
	fallback *session.MemoryStore
	locker   *session.Locker
	dialogue *dialogue.Machine
	admin    *admin.Flow
}

// New wires an Engine. store must not be nil.
func New(store session.Store, dlg *dialogue.Machine, flow *admin.Flow) *Engine {
	return &Engine{
		store:    store,
		fallback: session.NewMemoryStore(),
		locker:   session.NewLocker(),
		dialogue: dlg,
		admin:    flow,
	}
}

// Handle applies ev to the sender's session and returns the replies. Events of one
// user are applied one at a time; events of different users run in parallel.
func (e *Engine) Handle(ctx context.Context, ev Event) []Reply {
	if ev.UserID == 0 {
		return nil
	}
	start := time.Now()
	unlock := e.locker.Lock(ev.UserID)
	defer unlock()

	s := e.load(ctx, ev.UserID)
	prevState, prevAdmin := s.State, s.Admin
	if ev.Kind == KindStart {
		s = e.restart(ctx, ev.UserID)
	}
	run := s.ID
	ctx = logger.WithRun(ctx, run)

	replies := e.route(ctx, s, ev)

	// A run that ended during this event (completion, cancel, leaving the edit
	// flow) leaves nothing worth keeping.
	if s.ID != run && s.Pristine() {
		e.destroy(ctx, s)
	} else {
		e.save(ctx, s)
	}
	logger.Debug(ctx, "engine", "event.handled",
		slog.String("kind", string(ev.Kind)),
		slog.String("state", string(prevState)+">"+string(s.State)),
		slog.String("admin_state", string(prevAdmin)+">"+string(s.Admin)),
		slog.Int("replies", len(replies)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return replies
}

func (e *Engine) route(ctx context.Context, s *session.Session, ev Event) []Reply {
	id := ev.Identity()
	switch ev.Kind {
	case KindStart:
		leaveAdmin(s)
		return e.dialogue.Apply(ctx, s, id, dialogue.Event{Kind: dialogue.EventStart})

	case KindCancel:
		leaveAdmin(s)
		return e.dialogue.Apply(ctx, s, id, dialogue.Event{Kind: dialogue.EventCancel})

	case KindSettings:
		return e.admin.Enter(ctx, s, ev.UserID).Replies

	case KindButton:
		if !strings.HasPrefix(ev.Data, admin.SelectorPrefix) {
			return e.dialogue.Apply(ctx, s, id, dialogue.Event{Kind: dialogue.EventText, Text: ev.Text})
		}
		if !s.InAdmin() {
			logger.Debug(ctx, "engine", "button.stale", slog.String("data", ev.Data))
			return nil
		}
		return e.handleAdmin(ctx, s, ev.UserID, admin.Input{Data: ev.Data})

	default:
		if s.InAdmin() {
			return e.handleAdmin(ctx, s, ev.UserID, admin.Input{Text: ev.Text})
		}
		if s.State == session.StateAwaitLanguage && e.admin.Authorized(ev.UserID) && e.admin.IsTrigger(ev.Text) {
			return e.admin.Enter(ctx, s, ev.UserID).Replies
		}
		return e.dialogue.Apply(ctx, s, id, dialogue.Event{Kind: dialogue.EventText, Text: ev.Text})
	}
}

func (e *Engine) handleAdmin(ctx context.Context, s *session.Session, userID int64, in admin.Input) []Reply {
	res := e.admin.Handle(ctx, s, userID, in)
	if res.Exited {
		s.Reset()
		return append(res.Replies, e.dialogue.StartPrompt(userID))
	}
	return res.Replies
}

// load returns the stored session or a new one. A failing store degrades to the
// in-process fallback so the user is never stuck. Once the store answers again,
// a newer fallback copy wins and the fallback entry is dropped.
func (e *Engine) load(ctx context.Context, userID int64) *session.Session {
	s, ok, err := e.store.Get(ctx, userID)
	if err != nil {
		e.storeFailed(ctx, "get", userID, err)
		s, ok, _ = e.fallback.Get(ctx, userID)
	} else if pending, has, _ := e.fallback.Get(ctx, userID); has {
		if !ok || pending.UpdatedAt.After(s.UpdatedAt) {
			s, ok = pending, true
		}
		_ = e.fallback.Delete(ctx, userID)
	}
	if !ok || s == nil {
		return session.New(userID)
	}
	return s
}

// restart starts a new run for an explicit /start.
func (e *Engine) restart(ctx context.Context, userID int64) *session.Session {
	s, err := e.store.Reset(ctx, userID)
	if err != nil {
		e.storeFailed(ctx, "reset", userID, err)
		s, _ = e.fallback.Reset(ctx, userID)
	}
	return s
}

func (e *Engine) save(ctx context.Context, s *session.Session) {
	if err := e.store.Save(ctx, s); err != nil {
		e.storeFailed(ctx, "save", s.UserID, err)
		_ = e.fallback.Save(ctx, s)
	}
}

// destroy removes a closed run. If the store cannot, the fresh session is parked
// in the fallback so it supersedes the stale stored copy.
func (e *Engine) destroy(ctx context.Context, s *session.Session) {
	if err := e.store.Delete(ctx, s.UserID); err != nil {
		e.storeFailed(ctx, "delete", s.UserID, err)
		_ = e.fallback.Save(ctx, s)
		return
	}
	_ = e.fallback.Delete(ctx, s.UserID)
}

func (e *Engine) storeFailed(ctx context.Context, op string, userID int64, err error) {
	logger.Error(ctx, "sessions", op+".failed",
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("err", err.Error()),
	)
}

func leaveAdmin(s *session.Session) {
	s.Admin = session.AdminIdle
	s.Edit = nil
}
