// Package app wires configuration, storage, and the Telegram runtime into the
// intake bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/bootstrap"
	corecmd "github.com/m3rciful/intakebot/core/cmd"
	coredatabase "github.com/m3rciful/intakebot/core/database"
	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/lanes"
	tgsender "github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/intake/admin"
	"github.com/m3rciful/intakebot/intake/bot"
	"github.com/m3rciful/intakebot/intake/dialogue"
	"github.com/m3rciful/intakebot/intake/engine"
	"github.com/m3rciful/intakebot/intake/forward"
	"github.com/m3rciful/intakebot/intake/httpapi"
	"github.com/m3rciful/intakebot/intake/session"
	"github.com/m3rciful/intakebot/intake/templates"
)

// App holds the assembled bot.
type App struct {
	cfg *Config

	db         *sqlx.DB
	texts      *templates.Repository
	store      session.Store
	dispatcher *tgsender.Dispatcher
	sink       *bot.Sink
	forwarder  *forward.Forwarder
	lanes      *lanes.Lanes
	engine     *engine.Engine
	bot        *bot.Bot

	httpCancel context.CancelFunc
	httpDone   chan struct{}
}

// Hooks replace infrastructure constructors; zero values use the real ones.
type Hooks struct {
	Bootstrap func(ctx context.Context, opts bootstrap.Options) (*bootstrap.Result, error)
	Redis     func(ctx context.Context, url string, ttl time.Duration) (*session.RedisStore, error)
}

// Bootstrap adapts New to cmd.Options.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg, Hooks{})
}

// LoadConfig adapts Load to cmd.Options.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// New initializes logging and storage, loads the texts, and composes the engine.
func New(ctx context.Context, cfg *Config, hooks Hooks) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	run := hooks.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}

	a := &App{cfg: cfg}

	var db *coredatabase.Config
	if cfg.Templates.Driver == TemplatesPostgres {
		dbCfg := cfg.Database
		db = &dbCfg
	}
	res, err := run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: db,
		Seeders:  []bootstrap.Seeder{bootstrap.SeederFunc(a.loadTexts)},
	})
	if err != nil {
		return nil, err
	}
	a.db = res.DB

	store, err := a.openSessions(ctx, hooks)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.store = store
	a.compose()
	return a, nil
}

func (a *App) loadTexts(ctx context.Context, st bootstrap.Storage) error {
	var backend templates.Backend
	switch a.cfg.Templates.Driver {
	case TemplatesPostgres:
		if st.DB == nil {
			return errors.New("app: postgres templates need a database")
		}
		backend = templates.NewPostgresBackend(st.DB)
	default:
		backend = templates.NewFileBackend(a.cfg.Templates.Path)
	}
	a.texts = templates.NewRepository(backend, templates.Options{
		RecreateMissing: a.cfg.Templates.RecreateMissing,
		Timeout:         time.Duration(a.cfg.Templates.TimeoutMS) * time.Millisecond,
	})
	a.texts.Load(ctx)
	return nil
}

func (a *App) openSessions(ctx context.Context, hooks Hooks) (session.Store, error) {
	ttl := time.Duration(a.cfg.Sessions.TTLMinutes) * time.Minute
	if a.cfg.Sessions.Driver != SessionsRedis {
		logger.Info(ctx, "sessions", "store", slog.String("driver", SessionsMemory))
		return session.NewMemoryStoreTTL(ttl), nil
	}
	open := hooks.Redis
	if open == nil {
		open = session.NewRedisStore
	}
	store, err := open(ctx, a.cfg.Redis.URL, ttl)
	if err != nil {
		return nil, fmt.Errorf("app: sessions: %w", err)
	}
	logger.Info(ctx, "sessions", "store", slog.String("driver", SessionsRedis))
	return store, nil
}

func (a *App) compose() {
	cfg := a.cfg
	supervisor := cfg.Telegram.AdminID
	supLang := cfg.Intake.SupervisorLanguage

	a.dispatcher = tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2})
	a.sink = &bot.Sink{}
	a.lanes = lanes.New()

	a.forwarder = forward.New(a.sink, a.dispatcher, a.texts, forward.Options{
		SupervisorID:       supervisor,
		SupervisorLanguage: supLang,
	})
	dlg := dialogue.New(a.texts, a.forwarder, dialogue.Options{
		Questions:          cfg.Intake.Questions,
		ForwardSummary:     cfg.Intake.ForwardSummary,
		SupervisorID:       supervisor,
		SupervisorLanguage: supLang,
	})
	flow := admin.New(a.texts, admin.Options{
		SupervisorID:       supervisor,
		SupervisorLanguage: supLang,
		Questions:          dlg.Questions(),
	})
	a.engine = engine.New(a.store, dlg, flow)
	a.bot = bot.New(a.engine, a.lanes, bot.Options{
		SupervisorID:    supervisor,
		SettingsCommand: cfg.Intake.SettingsCommand,
		DeniedText: func() string {
			return a.texts.Get(supLang, templates.KeyAccessDenied)
		},
	})
}

// Engine exposes the composed engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      a.bot.Routes(reg),
		Synchronous: true,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.sink.Attach(rt.Bot)
	if a.cfg.HTTP.Listen == "" {
		return nil
	}
	httpCtx, cancel := context.WithCancel(ctx)
	a.httpCancel = cancel
	a.httpDone = make(chan struct{})
	srv := httpapi.NewServer(a.cfg.HTTP.Listen, httpapi.NewRouter(a.texts))
	go func() {
		defer close(a.httpDone)
		if err := srv.Run(httpCtx); err != nil {
			logger.Error(httpCtx, "http", "serve", slog.String("err", err.Error()))
		}
	}()
	return nil
}

// onStop drains the user lanes before the runtime closes the dispatcher, so
// forwards queued by the last events still go out. The sink stays attached for
// the same reason.
func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.httpCancel != nil {
		a.httpCancel()
		<-a.httpDone
	}
	a.lanes.Close()

	var errs []error
	if c, ok := a.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: close sessions: %w", err))
		}
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}
	logger.Info(ctx, "app", "stopped",
		slog.Uint64("forward_failures", a.forwarder.Failures()),
		slog.Uint64("send_failures", a.dispatcher.ErrorCount()),
	)
	return errors.Join(errs...)
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("app: close database: %w", err)
	}
	return nil
}
