// Package dialogue drives a user through the language prompt and the question
// sequence. It is a pure state machine over session.Session: the caller loads and
// saves the session, and the machine returns the replies to send.
package dialogue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/intake/forward"
	"github.com/m3rciful/intakebot/intake/message"
	"github.com/m3rciful/intakebot/intake/session"
	"github.com/m3rciful/intakebot/intake/templates"
)

// EventKind classifies an input the machine reacts to.
type EventKind string

const (
	// EventStart restarts the dialogue from the language prompt.
	EventStart EventKind = "start"
	// EventCancel abandons the current run.
	EventCancel EventKind = "cancel"
	// EventText is free text, including commands sent mid-question.
	EventText EventKind = "text"
)

// Event is one user input.
type Event struct {
	Kind EventKind
	Text string
}

// Texts supplies localized prompts.
type Texts interface {
	Get(lang, key string) string
	Render(lang, key string, vars map[string]string) string
}

// Notifier relays answers to the supervisor. Its result is informational only.
type Notifier interface {
	Forward(ctx context.Context, id forward.Identity, note forward.Note) forward.Outcome
	Summary(ctx context.Context, id forward.Identity, notes []forward.Note) forward.Outcome
}

// Options configure a Machine.
type Options struct {
	// Questions are the template keys asked in order.
	Questions []string
	// ForwardSummary sends one extra message with every answer after the last question.
	ForwardSummary bool
	// SupervisorID gets the settings button on the language keyboard.
	SupervisorID int64
	// SupervisorLanguage selects the language of the settings button label.
	SupervisorLanguage string
}

// DefaultQuestions is the question sequence used when none is configured.
var DefaultQuestions = []string{"question_1", "question_2"}

type handler func(ctx context.Context, m *Machine, in *input) []message.Reply

type transition struct {
	state session.State
	kind  EventKind
}

type input struct {
	sess *session.Session
	id   forward.Identity
	ev   Event
}

// Machine is the dialogue transition table plus its collaborators.
type Machine struct {
	texts    Texts
	notifier Notifier
	opts     Options
	table    map[transition]handler
}

// New builds a Machine. notifier may be nil, in which case answers are not relayed.
func New(texts Texts, notifier Notifier, opts Options) *Machine {
	if len(opts.Questions) == 0 {
		opts.Questions = append([]string(nil), DefaultQuestions...)
	}
	if opts.SupervisorLanguage == "" {
		opts.SupervisorLanguage = templates.Languages[0].Code
	}
	m := &Machine{texts: texts, notifier: notifier, opts: opts}
	m.table = map[transition]handler{
		{session.StateAwaitLanguage, EventStart}:  onStart,
		{session.StateAwaitLanguage, EventCancel}: onCancelIdle,
		{session.StateAwaitLanguage, EventText}:   onLanguage,
		{session.StateAwaitAnswer, EventStart}:    onStart,
		{session.StateAwaitAnswer, EventCancel}:   onCancel,
		{session.StateAwaitAnswer, EventText}:     onAnswer,
	}
	return m
}

// Questions returns the configured question keys.
func (m *Machine) Questions() []string {
	return append([]string(nil), m.opts.Questions...)
}

// Apply consumes ev for the session s and mutates s in place.
func (m *Machine) Apply(ctx context.Context, s *session.Session, id forward.Identity, ev Event) []message.Reply {
	h, ok := m.table[transition{s.State, ev.Kind}]
	if !ok {
		// A session persisted in an unknown state starts over.
		logger.Warn(ctx, "dialogue", "transition.missing",
			slog.String("state", string(s.State)),
			slog.String("kind", string(ev.Kind)),
		)
		s.Reset()
		return []message.Reply{m.StartPrompt(id.UserID)}
	}
	return h(ctx, m, &input{sess: s, id: id, ev: ev})
}

// StartPrompt is the language prompt. The supervisor's keyboard also carries the
// settings button.
func (m *Machine) StartPrompt(userID int64) message.Reply {
	prompts := make([]string, 0, len(templates.Languages))
	labels := make([]string, 0, len(templates.Languages)+1)
	for _, lang := range templates.Languages {
		prompts = append(prompts, m.texts.Get(lang.Code, templates.KeyChooseLanguage))
		labels = append(labels, lang.Label)
	}
	if m.opts.SupervisorID != 0 && userID == m.opts.SupervisorID {
		labels = append(labels, m.SettingsLabel())
	}
	return message.WithKeyboard(strings.Join(prompts, " / "), message.ReplyRows(labels))
}

// SettingsLabel is the text of the supervisor's settings button.
func (m *Machine) SettingsLabel() string {
	return m.texts.Get(m.opts.SupervisorLanguage, templates.KeySettingsButton)
}

func onStart(ctx context.Context, m *Machine, in *input) []message.Reply {
	if !in.sess.Pristine() {
		in.sess.Reset()
	}
	logger.Debug(ctx, "dialogue", "start", slog.Int64("user_id", in.id.UserID))
	return []message.Reply{m.StartPrompt(in.id.UserID)}
}

func onCancelIdle(_ context.Context, m *Machine, in *input) []message.Reply {
	return []message.Reply{message.WithKeyboard(
		m.texts.Get(replyLanguage(in.sess), templates.KeyCancelled),
		message.RemoveKeyboard(),
	)}
}

func onCancel(ctx context.Context, m *Machine, in *input) []message.Reply {
	lang := replyLanguage(in.sess)
	dropped := len(in.sess.Answers)
	in.sess.Reset()
	logger.Info(ctx, "dialogue", "cancel",
		slog.String("lang", lang),
		slog.Int("dropped", dropped),
	)
	return []message.Reply{message.WithKeyboard(
		m.texts.Get(lang, templates.KeyCancelled),
		message.RemoveKeyboard(),
	)}
}

func onLanguage(ctx context.Context, m *Machine, in *input) []message.Reply {
	code, ok := MatchLanguage(in.ev.Text)
	if !ok {
		logger.Debug(ctx, "dialogue", "language.invalid",
			slog.String("input", logger.SanitizeLimit(in.ev.Text, 64)),
		)
		prompt := m.StartPrompt(in.id.UserID)
		return []message.Reply{message.WithKeyboard(m.multilingual(templates.KeyInvalidLanguage), prompt.Keyboard)}
	}
	in.sess.Language = code
	in.sess.State = session.StateAwaitAnswer
	in.sess.Step = 1
	in.sess.Answers = nil
	logger.Info(ctx, "dialogue", "language.chosen", slog.String("lang", code))
	return []message.Reply{message.WithKeyboard(
		m.texts.Get(code, m.opts.Questions[0]),
		message.RemoveKeyboard(),
	)}
}

func onAnswer(ctx context.Context, m *Machine, in *input) []message.Reply {
	s := in.sess
	if s.Step < 1 || s.Step > len(m.opts.Questions) {
		logger.Warn(ctx, "dialogue", "step.invalid", slog.Int("step", s.Step))
		s.Reset()
		return []message.Reply{m.StartPrompt(in.id.UserID)}
	}
	key := m.opts.Questions[s.Step-1]
	if strings.TrimSpace(in.ev.Text) == "" {
		return []message.Reply{
			message.Text(m.texts.Get(s.Language, templates.KeyEmptyAnswer)),
			message.Text(m.texts.Get(s.Language, key)),
		}
	}

	s.Answers = append(s.Answers, session.Answer{Key: key, Value: in.ev.Text})
	note := forward.Note{
		Language:     s.Language,
		QuestionKey:  key,
		QuestionText: m.texts.Get(s.Language, key),
		Answer:       in.ev.Text,
	}
	m.forward(ctx, in.id, note)
	logger.Info(ctx, "dialogue", "answer.recorded",
		slog.String("lang", s.Language),
		slog.String("key", key),
		slog.Int("step", s.Step),
	)

	if s.Step < len(m.opts.Questions) {
		s.Step++
		return []message.Reply{message.Text(m.texts.Get(s.Language, m.opts.Questions[s.Step-1]))}
	}
	return m.complete(ctx, in)
}

func (m *Machine) complete(ctx context.Context, in *input) []message.Reply {
	s := in.sess
	lang := s.Language
	if m.opts.ForwardSummary && m.notifier != nil {
		notes := make([]forward.Note, 0, len(s.Answers))
		for _, a := range s.Answers {
			notes = append(notes, forward.Note{
				Language:     lang,
				QuestionKey:  a.Key,
				QuestionText: m.texts.Get(lang, a.Key),
				Answer:       a.Value,
			})
		}
		m.notifier.Summary(ctx, in.id, notes)
	}
	logger.Info(ctx, "dialogue", "done",
		slog.String("lang", lang),
		slog.Int("answers", len(s.Answers)),
	)
	s.Reset()
	return []message.Reply{message.WithKeyboard(m.texts.Get(lang, templates.KeyFinal), message.RemoveKeyboard())}
}

func (m *Machine) forward(ctx context.Context, id forward.Identity, note forward.Note) {
	if m.notifier == nil {
		return
	}
	outcome := m.notifier.Forward(ctx, id, note)
	logger.Debug(ctx, "dialogue", "answer.forwarded",
		slog.String("key", note.QuestionKey),
		slog.String("mode", string(outcome)),
	)
}

func (m *Machine) multilingual(key string) string {
	parts := make([]string, 0, len(templates.Languages))
	seen := make(map[string]struct{}, len(templates.Languages))
	for _, lang := range templates.Languages {
		text := m.texts.Get(lang.Code, key)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}
	return strings.Join(parts, " / ")
}

// replyLanguage is the language used before the user has picked one.
func replyLanguage(s *session.Session) string {
	if s.Language != "" {
		return s.Language
	}
	return templates.Languages[0].Code
}
