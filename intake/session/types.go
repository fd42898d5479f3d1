// Package session stores one dialogue session per user.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State identifies a step of the user dialogue.
type State string

const (
	// StateAwaitLanguage is the initial state: the language prompt is pending.
	StateAwaitLanguage State = "await_language"
	// StateAwaitAnswer waits for the answer to question Step (1-based). After the
	// last answer the run is closed and the session goes back to StateAwaitLanguage.
	StateAwaitAnswer State = "await_answer"
)

// AdminState identifies a step of the supervisor edit flow.
type AdminState string

const (
	// AdminIdle means the session is not in the edit flow.
	AdminIdle AdminState = ""
	// AdminMenu asks which language to edit.
	AdminMenu AdminState = "menu"
	// AdminChooseKey asks which text of the chosen language to edit.
	AdminChooseKey AdminState = "choose_key"
	// AdminAwaitText waits for the replacement text.
	AdminAwaitText AdminState = "await_text"
)

// Answer is one recorded reply.
type Answer struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EditContext is the supervisor's current edit target.
type EditContext struct {
	Language string `json:"language,omitempty"`
	Key      string `json:"key,omitempty"`
}

// Session is one user's position in the dialogue.
type Session struct {
	// ID identifies one run through the questionnaire; a reset issues a new one.
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	State     State        `json:"state"`
	Step      int          `json:"step,omitempty"`
	Language  string       `json:"language,omitempty"`
	Answers   []Answer     `json:"answers,omitempty"`
	Admin     AdminState   `json:"admin,omitempty"`
	Edit      *EditContext `json:"edit,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New returns a session in the initial state.
func New(userID int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     StateAwaitLanguage,
		UpdatedAt: time.Now(),
	}
}

// Reset discards progress and returns the session to the initial state with a new run ID.
func (s *Session) Reset() {
	s.ID = uuid.NewString()
	s.State = StateAwaitLanguage
	s.Step = 0
	s.Language = ""
	s.Answers = nil
	s.Admin = AdminIdle
	s.Edit = nil
	s.UpdatedAt = time.Now()
}

// Pristine reports whether s holds nothing beyond what New would create.
func (s *Session) Pristine() bool {
	return s.State == StateAwaitLanguage && s.Step == 0 && s.Language == "" &&
		len(s.Answers) == 0 && s.Admin == AdminIdle && s.Edit == nil
}

// InAdmin reports whether the session is inside the edit flow.
func (s *Session) InAdmin() bool {
	return s.Admin != AdminIdle
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Answers != nil {
		out.Answers = append([]Answer(nil), s.Answers...)
	}
	if s.Edit != nil {
		edit := *s.Edit
		out.Edit = &edit
	}
	return &out
}

// Store owns sessions keyed by user ID. Implementations return copies, so a caller
// must Save to publish changes. Reset starts a new run (explicit restart); Delete
// destroys the session once a run is closed.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, bool, error)
	Save(ctx context.Context, s *Session) error
	Reset(ctx context.Context, userID int64) (*Session, error)
	Delete(ctx context.Context, userID int64) error
}
