package telegram

import (
	"testing"

	"github.com/m3rciful/intakebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start over"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})

	cmds := reg.Commands()
	if len(cmds) != 1 || cmds["/start"].Description != "Start over" {
		t.Fatalf("unexpected commands %+v", cmds)
	}
}

func TestLookupCommandNormalizesName(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/settings", commands.Command{Handler: noop, Description: "Edit", Aliases: []string{"admin"}})

	for _, in := range []string{"/settings", "settings", "/Settings@intake_bot", "/admin"} {
		key, _, ok := reg.LookupCommand(in)
		if !ok || key != "/settings" {
			t.Fatalf("lookup %q = %q, %v", in, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("unexpected match for /unknown")
	}
}

func TestListCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel"})
	reg.RegisterCommand("/settings", commands.Command{Handler: noop, Description: "Edit", AdminOnly: true})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "cancel" || visible[1].Text != "start" {
		t.Fatalf("unexpected visible commands %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(all))
	}
}

func TestRegisterCallbackRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("admin", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("admin", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected invalid registration error")
	}
	if reg.CallbackCount() != 1 {
		t.Fatalf("callbacks = %d", reg.CallbackCount())
	}
	if _, ok := reg.GetCallback("admin"); !ok {
		t.Fatal("callback not found")
	}
}
