// Package admin implements the supervisor's text edit flow: pick a language, pick a
// key, send the replacement text. It runs alongside the user dialogue on the same
// session and only for the configured supervisor.
package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/intake/dialogue"
	"github.com/m3rciful/intakebot/intake/message"
	"github.com/m3rciful/intakebot/intake/session"
	"github.com/m3rciful/intakebot/intake/templates"
)

// Inline selectors carried by admin buttons.
const (
	SelectorPrefix     = "admin:"
	SelectorLangPrefix = "admin:lang:"
	SelectorKeyPrefix  = "admin:key:"
	SelectorBack       = "admin:back"
)

// Store is the part of the template repository the flow needs.
type Store interface {
	Get(lang, key string) string
	Render(lang, key string, vars map[string]string) string
	Update(ctx context.Context, lang, key, text string) error
}

// Options configure a Flow.
type Options struct {
	SupervisorID       int64
	SupervisorLanguage string
	// Questions feed the list of editable keys.
	Questions []string
}

// Input is a text message or a button press inside the flow.
type Input struct {
	Text string
	Data string
}

// Result is the outcome of one step.
type Result struct {
	Replies []message.Reply
	// Exited is set when the supervisor left the flow; the caller shows the start prompt.
	Exited bool
	// Denied is set when the identity is not the supervisor.
	Denied bool
}

type step func(ctx context.Context, f *Flow, s *session.Session, sel selection) Result

// Flow is the admin state machine.
type Flow struct {
	store Store
	opts  Options
	keys  []string
	steps map[session.AdminState]step
}

// New builds a Flow.
func New(store Store, opts Options) *Flow {
	if opts.SupervisorLanguage == "" {
		opts.SupervisorLanguage = templates.Languages[0].Code
	}
	questions := opts.Questions
	if len(questions) == 0 {
		questions = dialogue.DefaultQuestions
	}
	f := &Flow{
		store: store,
		opts:  opts,
		keys:  templates.EditableKeys(questions),
	}
	f.steps = map[session.AdminState]step{
		session.AdminMenu:      stepMenu,
		session.AdminChooseKey: stepChooseKey,
		session.AdminAwaitText: stepAwaitText,
	}
	return f
}

// Authorized reports whether userID may use the flow.
func (f *Flow) Authorized(userID int64) bool {
	return f.opts.SupervisorID != 0 && userID == f.opts.SupervisorID
}

// IsTrigger reports whether text is the settings button label.
func (f *Flow) IsTrigger(text string) bool {
	label := f.store.Get(f.opts.SupervisorLanguage, templates.KeySettingsButton)
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(label))
}

// Enter starts the flow. Any dialogue progress on the session is discarded. A caller
// other than the supervisor is denied and s is left untouched.
func (f *Flow) Enter(ctx context.Context, s *session.Session, userID int64) Result {
	if !f.Authorized(userID) {
		logger.Warn(ctx, "admin", "access.denied", slog.Int64("user_id", userID))
		return f.denied()
	}
	s.Reset()
	s.Admin = session.AdminMenu
	logger.Info(ctx, "admin", "enter", slog.String("admin_state", string(s.Admin)))
	return Result{Replies: []message.Reply{f.menu()}}
}

// Handle consumes one input while the session is in the flow.
func (f *Flow) Handle(ctx context.Context, s *session.Session, userID int64, in Input) Result {
	if !f.Authorized(userID) {
		s.Admin = session.AdminIdle
		s.Edit = nil
		logger.Warn(ctx, "admin", "access.denied",
			slog.Int64("user_id", userID),
			slog.String("admin_state", "reset"),
		)
		return f.denied()
	}
	h, ok := f.steps[s.Admin]
	if !ok {
		s.Admin = session.AdminMenu
		s.Edit = nil
		return Result{Replies: []message.Reply{f.menu()}}
	}
	return h(ctx, f, s, f.parse(in))
}

func stepMenu(ctx context.Context, f *Flow, s *session.Session, sel selection) Result {
	switch sel.kind {
	case selBack:
		s.Admin = session.AdminIdle
		s.Edit = nil
		logger.Info(ctx, "admin", "exit")
		return Result{Exited: true}
	case selLanguage:
		s.Edit = &session.EditContext{Language: sel.value}
		s.Admin = session.AdminChooseKey
		logger.Debug(ctx, "admin", "language.chosen", slog.String("lang", sel.value))
		return Result{Replies: []message.Reply{f.keyMenu(sel.value)}}
	}
	return f.invalid(f.menu())
}

func stepChooseKey(ctx context.Context, f *Flow, s *session.Session, sel selection) Result {
	if s.Edit == nil || s.Edit.Language == "" {
		s.Admin = session.AdminMenu
		return Result{Replies: []message.Reply{f.menu()}}
	}
	switch sel.kind {
	case selBack:
		s.Admin = session.AdminMenu
		s.Edit = nil
		return Result{Replies: []message.Reply{f.menu()}}
	case selKey:
		lang := s.Edit.Language
		s.Edit.Key = sel.value
		s.Admin = session.AdminAwaitText
		logger.Debug(ctx, "admin", "key.chosen",
			slog.String("lang", lang),
			slog.String("key", sel.value),
		)
		text := f.store.Render(f.opts.SupervisorLanguage, templates.KeyAdminCurrent, map[string]string{
			"key":  sel.value,
			"lang": lang,
			"text": f.store.Get(lang, sel.value),
		})
		return Result{Replies: []message.Reply{message.WithKeyboard(text, f.backOnly())}}
	}
	return f.invalid(f.keyMenu(s.Edit.Language))
}

func stepAwaitText(ctx context.Context, f *Flow, s *session.Session, sel selection) Result {
	if s.Edit == nil || s.Edit.Language == "" || s.Edit.Key == "" {
		s.Admin = session.AdminMenu
		s.Edit = nil
		return Result{Replies: []message.Reply{f.menu()}}
	}
	lang, key := s.Edit.Language, s.Edit.Key
	switch {
	case sel.kind == selBack:
		s.Edit.Key = ""
		s.Admin = session.AdminChooseKey
		return Result{Replies: []message.Reply{f.keyMenu(lang)}}
	case sel.button:
		// A stale selector is not replacement text.
		return f.invalid(message.WithKeyboard(
			f.store.Get(f.opts.SupervisorLanguage, templates.KeyEmptyAnswer), f.backOnly()))
	case strings.TrimSpace(sel.raw) == "":
		return Result{Replies: []message.Reply{message.WithKeyboard(
			f.store.Get(f.opts.SupervisorLanguage, templates.KeyEmptyAnswer), f.backOnly())}}
	}

	vars := map[string]string{"key": key, "lang": lang}
	confirm := templates.KeyAdminSaved
	if err := f.store.Update(ctx, lang, key, sel.raw); err != nil {
		confirm = templates.KeyAdminPersistFailed
		logger.Error(ctx, "admin", "text.persist",
			slog.String("status", "fail"),
			slog.String("lang", lang),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, "admin", "text.saved",
			slog.String("status", "ok"),
			slog.String("lang", lang),
			slog.String("key", key),
		)
	}
	s.Edit = nil
	s.Admin = session.AdminMenu
	return Result{Replies: []message.Reply{
		message.Text(f.store.Render(f.opts.SupervisorLanguage, confirm, vars)),
		f.menu(),
	}}
}

func (f *Flow) denied() Result {
	return Result{
		Denied:  true,
		Replies: []message.Reply{message.Text(f.store.Get(f.opts.SupervisorLanguage, templates.KeyAccessDenied))},
	}
}

func (f *Flow) invalid(next message.Reply) Result {
	return Result{Replies: []message.Reply{
		message.Text(f.store.Get(f.opts.SupervisorLanguage, templates.KeyAdminInvalid)),
		next,
	}}
}

func (f *Flow) menu() message.Reply {
	row := make([]message.Button, 0, len(templates.Languages))
	for _, lang := range templates.Languages {
		row = append(row, message.Button{
			Label: strings.ToUpper(lang.Code),
			Data:  SelectorLangPrefix + lang.Code,
		})
	}
	kb := &message.Keyboard{Inline: true, Rows: [][]message.Button{row, {f.backButton()}}}
	return message.WithKeyboard(f.store.Get(f.opts.SupervisorLanguage, templates.KeyAdminMenu), kb)
}

func (f *Flow) keyMenu(lang string) message.Reply {
	kb := &message.Keyboard{Inline: true}
	for i := 0; i < len(f.keys); i += 2 {
		end := min(i+2, len(f.keys))
		row := make([]message.Button, 0, 2)
		for _, key := range f.keys[i:end] {
			row = append(row, message.Button{Label: key, Data: SelectorKeyPrefix + key})
		}
		kb.Rows = append(kb.Rows, row)
	}
	kb.Rows = append(kb.Rows, []message.Button{f.backButton()})
	text := f.store.Render(f.opts.SupervisorLanguage, templates.KeyAdminChooseKey, map[string]string{"lang": lang})
	return message.WithKeyboard(text, kb)
}

func (f *Flow) backOnly() *message.Keyboard {
	return &message.Keyboard{Inline: true, Rows: [][]message.Button{{f.backButton()}}}
}

func (f *Flow) backButton() message.Button {
	return message.Button{
		Label: f.store.Get(f.opts.SupervisorLanguage, templates.KeyAdminBack),
		Data:  SelectorBack,
	}
}
