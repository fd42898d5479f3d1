package admin

import (
	"slices"
	"strings"

	"github.com/m3rciful/intakebot/intake/dialogue"
	"github.com/m3rciful/intakebot/intake/templates"
)

type selKind int

const (
	selNone selKind = iota
	selBack
	selLanguage
	selKey
)

type selection struct {
	kind  selKind
	value string
	// raw is the text as sent; used verbatim as the replacement text.
	raw string
	// button is set when the input came from an inline selector.
	button bool
}

var backWords = []string{"назад", "back"}

// parse resolves an input into a selection. Inline selectors are exact; text is
// matched leniently so the flow also works from a plain keyboard.
func (f *Flow) parse(in Input) selection {
	if data := strings.TrimSpace(in.Data); data != "" {
		sel := selection{raw: in.Text, button: true}
		switch {
		case data == SelectorBack:
			sel.kind = selBack
		case strings.HasPrefix(data, SelectorLangPrefix):
			code := strings.TrimPrefix(data, SelectorLangPrefix)
			if knownLanguage(code) {
				sel.kind, sel.value = selLanguage, code
			}
		case strings.HasPrefix(data, SelectorKeyPrefix):
			key := strings.TrimPrefix(data, SelectorKeyPrefix)
			if slices.Contains(f.keys, key) {
				sel.kind, sel.value = selKey, key
			}
		}
		return sel
	}

	sel := selection{raw: in.Text}
	token := strings.ToLower(strings.TrimSpace(in.Text))
	if token == "" {
		return sel
	}
	backLabel := strings.ToLower(strings.TrimSpace(f.store.Get(f.opts.SupervisorLanguage, templates.KeyAdminBack)))
	if token == backLabel || slices.Contains(backWords, token) {
		sel.kind = selBack
		return sel
	}
	if slices.Contains(f.keys, token) {
		sel.kind, sel.value = selKey, token
		return sel
	}
	if code, ok := dialogue.MatchLanguage(token); ok {
		sel.kind, sel.value = selLanguage, code
	}
	return sel
}

func knownLanguage(code string) bool {
	for _, lang := range templates.Languages {
		if lang.Code == code {
			return true
		}
	}
	return false
}
