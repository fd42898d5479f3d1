package keyboard

import "testing"

func TestReplySkipsEmptyRows(t *testing.T) {
	markup := Reply([]string{"РУССКИЙ", "ENGLISH"}, nil, []string{"Настройки"})
	if !markup.OneTimeKeyboard || !markup.ResizeKeyboard {
		t.Fatalf("unexpected flags: %+v", markup)
	}
	if len(markup.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, expected 2", len(markup.ReplyKeyboard))
	}
	if got := markup.ReplyKeyboard[0][1].Text; got != "ENGLISH" {
		t.Fatalf("button = %q", got)
	}
}

func TestInlineKeepsUniqueAndPayload(t *testing.T) {
	markup := Inline(
		[]Button{{Text: "RU", Unique: "admin", Data: "lang:ru"}},
		[]Button{},
		[]Button{{Text: "Назад", Unique: "admin", Data: "back"}},
	)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, expected 2", len(markup.InlineKeyboard))
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Unique != "admin" || btn.Data != "lang:ru" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemove(t *testing.T) {
	if !Remove().RemoveKeyboard {
		t.Fatal("expected RemoveKeyboard flag")
	}
}
