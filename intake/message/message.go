// Package message holds the transport-independent output of the intake flows.
package message

// Button is one keyboard button. Data is empty for reply-keyboard buttons and
// carries the selector for inline buttons.
type Button struct {
	Label string
	Data  string
}

// Keyboard describes the markup attached to a reply.
type Keyboard struct {
	// Inline selects an inline keyboard; otherwise a one-time reply keyboard is used.
	Inline bool
	// Remove hides a previously shown reply keyboard. Rows are ignored.
	Remove bool
	Rows   [][]Button
}

// Reply is one outgoing message to the user who sent the event.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}

// Text builds a reply without markup.
func Text(text string) Reply {
	return Reply{Text: text}
}

// WithKeyboard builds a reply carrying kb.
func WithKeyboard(text string, kb *Keyboard) Reply {
	return Reply{Text: text, Keyboard: kb}
}

// RemoveKeyboard returns markup that hides the reply keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// ReplyRows builds a reply keyboard from rows of labels.
func ReplyRows(rows ...[]string) *Keyboard {
	kb := &Keyboard{Rows: make([][]Button, 0, len(rows))}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]Button, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, Button{Label: label})
		}
		kb.Rows = append(kb.Rows, buttons)
	}
	return kb
}

// Labels flattens the keyboard into its button labels.
func (k *Keyboard) Labels() []string {
	if k == nil {
		return nil
	}
	var out []string
	for _, row := range k.Rows {
		for _, b := range row {
			out = append(out, b.Label)
		}
	}
	return out
}
