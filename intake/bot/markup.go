package bot

import (
	"strings"

	"github.com/m3rciful/intakebot/core/telegram/keyboard"
	"github.com/m3rciful/intakebot/intake/admin"
	"github.com/m3rciful/intakebot/intake/message"

	tele "gopkg.in/telebot.v4"
)

// callbackUnique is the telebot unique of every admin button; the rest of the
// selector travels as the payload.
var callbackUnique = strings.TrimSuffix(admin.SelectorPrefix, ":")

func render(kb *message.Keyboard) *tele.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return keyboard.Remove()
	case kb.Inline:
		rows := make([][]keyboard.Button, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]keyboard.Button, 0, len(row))
			for _, b := range row {
				unique, payload := splitSelector(b.Data)
				btns = append(btns, keyboard.Button{Text: b.Label, Unique: unique, Data: payload})
			}
			rows = append(rows, btns)
		}
		return keyboard.Inline(rows...)
	default:
		rows := make([][]string, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			labels := make([]string, 0, len(row))
			for _, b := range row {
				labels = append(labels, b.Label)
			}
			rows = append(rows, labels)
		}
		return keyboard.Reply(rows...)
	}
}

// splitSelector turns "admin:lang:ru" into ("admin", "lang:ru").
func splitSelector(data string) (string, string) {
	unique, payload, _ := strings.Cut(data, ":")
	return unique, payload
}

func joinSelector(unique, payload string) string {
	if payload == "" {
		return unique
	}
	return unique + ":" + payload
}
