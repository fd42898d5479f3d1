package logger

import (
	"log/slog"
	"regexp"
)

var tokenPattern = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// redactedKeys hold free text that may embed a Bot API URL with the token.
var redactedKeys = []string{"err", "cause", "public_url"}

// RedactToken masks bot tokens embedded in Bot API URLs.
func RedactToken(s string) string {
	if s == "" {
		return s
	}
	return tokenPattern.ReplaceAllString(s, "bot<redacted>")
}

// redact masks tokens and drops user-typed payloads above debug level, since
// payloads carry questionnaire answers.
func (e entry) redact(level slog.Level) {
	for _, k := range redactedKeys {
		if s, ok := e[k].(string); ok {
			e[k] = RedactToken(s)
		}
	}
	if level > slog.LevelDebug {
		delete(e, "payload")
	}
}
