package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{Telegram: TelegramConfig{Token: "1:x", AdminID: 7}}
}

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = " Polling "
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("expected longpoll, got %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook without url")
	}
	cfg.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback || cfg.RateLimit.ExcludeUpdates[2] != UpdateMessage {
		t.Fatalf("unexpected exclusions %v", cfg.RateLimit.ExcludeUpdates)
	}
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown update kind")
	}
}

func TestNormalizeRequiresTokenAndSupervisor(t *testing.T) {
	if err := Normalize(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg := validConfig()
	cfg.Telegram.Token = " "
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for empty token")
	}
	cfg = validConfig()
	cfg.Telegram.AdminID = 0
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing admin id")
	}
}

func TestLoadDotenv(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INTAKE_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("INTAKE_DOTENV_PROBE", "")
	os.Unsetenv("INTAKE_DOTENV_PROBE")
	if err := LoadDotenv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("INTAKE_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("expected from-file, got %q", got)
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "telegram:\n  token: \"1:file\"\n  admin_id: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "2:env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "2:env" || cfg.Telegram.AdminID != 5 {
		t.Fatalf("unexpected telegram config %+v", cfg.Telegram)
	}
}
