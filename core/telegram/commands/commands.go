// Package commands describes slash commands kept in the registry.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a registered slash command.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run behind the supervisor gate and stay out of the menu.
	AdminOnly bool
	// Hidden commands work but are not published in the menu.
	Hidden bool
	// Aliases are extra names, with or without the leading slash.
	Aliases []string
}

// Listed reports whether the command belongs in the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// MenuEntry converts name into the form setMyCommands accepts: no slash,
// lowercase.
func (c Command) MenuEntry(name string) tele.Command {
	return tele.Command{
		Text:        strings.ToLower(strings.TrimPrefix(name, "/")),
		Description: c.Description,
	}
}
