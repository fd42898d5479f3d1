// Package templates owns the localized text mapping (language → key → text)
// that every dialogue reads and the supervisor edits at runtime.
package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
)

// Texts is the nested language → key → text mapping.
type Texts map[string]map[string]string

// Clone returns a deep copy.
func (t Texts) Clone() Texts {
	out := make(Texts, len(t))
	for lang, keys := range t {
		inner := make(map[string]string, len(keys))
		for k, v := range keys {
			inner[k] = v
		}
		out[lang] = inner
	}
	return out
}

// ErrNoSource reports that the backend has nothing stored yet.
var ErrNoSource = errors.New("templates: no stored texts")

// Backend is the durable side of the repository.
type Backend interface {
	Load(ctx context.Context) (Texts, error)
	// Save must replace the stored mapping atomically: either the new mapping is
	// fully visible afterwards or the previous one is left intact.
	Save(ctx context.Context, texts Texts) error
	Describe() string
}

// Options tune Repository behaviour.
type Options struct {
	// RecreateMissing writes the defaults back when the backend reports ErrNoSource.
	RecreateMissing bool
	// Timeout bounds every backend call; 0 means 5s.
	Timeout time.Duration
	// Defaults replaces the embedded default set (tests).
	Defaults Texts
}

// Repository is the single guarded owner of the text mapping.
type Repository struct {
	mu       sync.RWMutex
	texts    Texts
	defaults Texts
	backend  Backend
	opts     Options
}

// NewRepository creates a repository that starts with the defaults until Load is called.
func NewRepository(backend Backend, opts Options) *Repository {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	defaults := opts.Defaults
	if defaults == nil {
		defaults = Defaults()
	}
	return &Repository{
		texts:    defaults.Clone(),
		defaults: defaults,
		backend:  backend,
		opts:     opts,
	}
}

// Load reads the backend into memory. It never fails: on a missing, unreadable, or
// malformed source the embedded defaults are used instead.
func (r *Repository) Load(ctx context.Context) Texts {
	start := time.Now()
	source := "defaults"
	loaded, err := r.loadBackend(ctx)
	switch {
	case err == nil && len(loaded) > 0:
		source = r.describe()
	case errors.Is(err, ErrNoSource) || (err == nil && len(loaded) == 0):
		loaded = r.defaults.Clone()
		logger.Warn(ctx, "templates", "load.missing",
			slog.String("status", "skip"),
			slog.String("source", r.describe()),
		)
		if r.opts.RecreateMissing && r.backend != nil {
			if saveErr := r.saveBackend(ctx, loaded); saveErr != nil {
				logger.Warn(ctx, "templates", "load.recreate",
					slog.String("status", "fail"),
					slog.String("err", saveErr.Error()),
				)
			} else {
				logger.Info(ctx, "templates", "load.recreate",
					slog.String("status", "ok"),
					slog.String("source", r.describe()),
				)
			}
		}
	default:
		loaded = r.defaults.Clone()
		logger.Error(ctx, "templates", "load.failed",
			slog.String("status", "fail"),
			slog.String("source", r.describe()),
			slog.String("err", err.Error()),
		)
	}

	r.mu.Lock()
	r.texts = loaded
	snapshot := r.texts.Clone()
	r.mu.Unlock()

	logger.Info(ctx, "templates", "load.done",
		slog.String("status", "ok"),
		slog.String("source", source),
		slog.Int("languages", len(snapshot)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return snapshot
}

// Get returns the text for (lang, key). Missing entries fall back to the defaults of
// the language, then of DefaultLanguage, then to Fallback.
func (r *Repository) Get(lang, key string) string {
	r.mu.RLock()
	text, ok := r.texts[lang][key]
	r.mu.RUnlock()
	if ok && text != "" {
		return text
	}
	if text, ok := r.defaults[lang][key]; ok && text != "" {
		return text
	}
	if text, ok := r.defaults[DefaultLanguage][key]; ok && text != "" {
		return text
	}
	return Fallback
}

// Set changes the in-memory text only.
func (r *Repository) Set(lang, key, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLocked(lang, key, text)
}

func (r *Repository) setLocked(lang, key, text string) {
	if r.texts == nil {
		r.texts = make(Texts)
	}
	inner, ok := r.texts[lang]
	if !ok {
		inner = make(map[string]string)
		r.texts[lang] = inner
	}
	inner[key] = text
}

// Persist writes the whole current mapping to the backend.
func (r *Repository) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

// Update applies Set and Persist as one step with respect to other writers and
// readers. When the durable write fails the in-memory edit is kept and the error is
// returned so the caller can warn that the change will not survive a restart.
func (r *Repository) Update(ctx context.Context, lang, key, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLocked(lang, key, text)
	if err := r.persistLocked(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "templates", "text.updated",
		slog.String("status", "ok"),
		slog.String("lang", lang),
		slog.String("key", key),
	)
	return nil
}

func (r *Repository) persistLocked(ctx context.Context) error {
	if r.backend == nil {
		return fmt.Errorf("templates: no backend configured")
	}
	start := time.Now()
	if err := r.saveBackend(ctx, r.texts.Clone()); err != nil {
		logger.Error(ctx, "templates", "persist.failed",
			slog.String("status", "fail"),
			slog.String("source", r.describe()),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("templates: persist: %w", err)
	}
	logger.Debug(ctx, "templates", "persist.done",
		slog.String("status", "ok"),
		slog.String("source", r.describe()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Snapshot returns a deep copy of the current mapping.
func (r *Repository) Snapshot() Texts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.texts.Clone()
}

// Render looks up (lang, key) and substitutes {name} placeholders from vars.
func (r *Repository) Render(lang, key string, vars map[string]string) string {
	return Render(r.Get(lang, key), vars)
}

// Render substitutes {name} placeholders. Unknown placeholders are kept as is.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (r *Repository) loadBackend(ctx context.Context) (Texts, error) {
	if r.backend == nil {
		return nil, ErrNoSource
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.backend.Load(ctx)
}

func (r *Repository) saveBackend(ctx context.Context, texts Texts) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.backend.Save(ctx, texts)
}

func (r *Repository) describe() string {
	if r.backend == nil {
		return "none"
	}
	return r.backend.Describe()
}
