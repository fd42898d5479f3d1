package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpoll(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	lp, ok := BuildPoller(cfg).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
	cfg.Telegram.LongPollTimeoutSeconds = 25
	if lp := BuildPoller(cfg).(*tele.LongPoller); lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = "Webhook"
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	wh, ok := BuildPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("unexpected webhook %+v", wh)
	}
	if len(wh.AllowedUpdates) != 2 {
		t.Fatalf("allowed updates = %v", wh.AllowedUpdates)
	}
}
