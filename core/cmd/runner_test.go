package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coretelegram "github.com/m3rciful/intakebot/core/telegram"
)

type carrier struct{ cfg coreconfig.Config }

func (c *carrier) CoreConfig() *coreconfig.Config { return &c.cfg }

type fakeApp struct{ opts coretelegram.RunOptions }

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("INTAKE_CONFIG", "/etc/intake.yaml")
	opts := Options{ConfigEnvVar: "INTAKE_CONFIG", DefaultConfigPath: "config.yaml", Args: []string{}}

	if got, _ := configPath(opts); got != "/etc/intake.yaml" {
		t.Fatalf("env path = %q", got)
	}
	opts.Args = []string{"-config", "local.yaml"}
	if got, _ := configPath(opts); got != "local.yaml" {
		t.Fatalf("flag path = %q", got)
	}

	t.Setenv("INTAKE_CONFIG", "")
	opts.Args = []string{}
	if got, _ := configPath(opts); got != "config.yaml" {
		t.Fatalf("default path = %q", got)
	}
	opts.DefaultConfigPath = ""
	if _, err := configPath(opts); err == nil {
		t.Fatal("expected error without any path")
	}
}

func TestRunShutsLoggerDownOnBootstrapFailure(t *testing.T) {
	boom := errors.New("boom")
	var shutdowns int
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		Args:              []string{},
		LoadConfig:        func(string) (ConfigCarrier, error) { return &carrier{}, nil },
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return nil, boom
		},
		ShutdownLogger: func() error { shutdowns++; return nil },
	})
	if !errors.Is(err, boom) || shutdowns != 1 {
		t.Fatalf("err=%v shutdowns=%d", err, shutdowns)
	}
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	var order []string
	app := &fakeApp{opts: coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { order = append(order, "start"); return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { order = append(order, "stop"); return nil },
	}}
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		Args:              []string{},
		LoadConfig:        func(string) (ConfigCarrier, error) { return &carrier{}, nil },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger:    func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "start" || order[1] != "stop" {
		t.Fatalf("order = %v", order)
	}
}
