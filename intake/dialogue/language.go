package dialogue

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/intakebot/intake/templates"
)

const minPrefixRunes = 2

// MatchLanguage resolves user input against the fixed language set. Matching is
// case-insensitive and ignores decorations such as emoji around the token. An exact
// alias or label wins; otherwise the input may be a prefix of an alias, or start with
// an alias followed by a word boundary.
func MatchLanguage(input string) (string, bool) {
	token := normalizeToken(input)
	if utf8.RuneCountInString(token) < minPrefixRunes {
		return "", false
	}
	for _, lang := range templates.Languages {
		for _, alias := range candidates(lang) {
			if token == alias {
				return lang.Code, true
			}
		}
	}
	for _, lang := range templates.Languages {
		for _, alias := range candidates(lang) {
			if strings.HasPrefix(alias, token) {
				return lang.Code, true
			}
			if rest, ok := strings.CutPrefix(token, alias); ok && utf8.RuneCountInString(alias) >= minPrefixRunes {
				r, _ := utf8.DecodeRuneInString(rest)
				if !unicode.IsLetter(r) {
					return lang.Code, true
				}
			}
		}
	}
	return "", false
}

func candidates(lang templates.Language) []string {
	out := make([]string, 0, len(lang.Aliases)+2)
	out = append(out, strings.ToLower(lang.Code), strings.ToLower(lang.Label))
	for _, a := range lang.Aliases {
		out = append(out, strings.ToLower(a))
	}
	return out
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
