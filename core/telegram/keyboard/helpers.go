// Package keyboard builds telebot reply markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button routed by Unique; Data is the payload after the
// unique in the callback data.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Remove hides the reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Reply builds a resized one-time reply keyboard. Empty rows are skipped.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	kb := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			r[i] = tele.ReplyButton{Text: label}
		}
		kb = append(kb, r)
	}
	return &tele.ReplyMarkup{ReplyKeyboard: kb, ResizeKeyboard: true, OneTimeKeyboard: true}
}

// Inline builds an inline keyboard. Empty rows are skipped.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	kb := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for i, b := range row {
			r[i] = tele.InlineButton{Unique: b.Unique, Text: b.Text, Data: b.Data}
		}
		kb = append(kb, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}
