package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/migrations"
)

const readyTimeout = 30 * time.Second

// RunMigrations applies every pending up migration. The embedded set is used
// unless cfg.MigrationsDir points at a directory on disk.
func RunMigrations(ctx context.Context, cfg Config) error {
	if err := WaitForPostgres(ctx, cfg.DSN(), readyTimeout); err != nil {
		logger.Error(ctx, "db.migrate", "ready", slog.String("status", "fail"), slog.String("err", err.Error()))
		return fmt.Errorf("database not ready: %w", err)
	}

	files, err := migrationSource(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	names := upFiles(files)
	src, err := iofs.New(files, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	return apply(ctx, src, cfg.URL(), names)
}

func apply(ctx context.Context, src source.Driver, url string, names []string) error {
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		logger.Error(ctx, "db.migrate", "init", slog.String("status", "fail"), slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("status", "fail"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	to, _, _ := m.Version()

	applied := appliedBetween(names, uint64(from), uint64(to))
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", time.Since(start)),
	}
	if preview, cut := logger.SummarizeStrings(applied, 6); preview != "" {
		attrs = append(attrs, slog.String("applied", preview), slog.Bool("applied_truncated", cut))
	}
	logger.Info(ctx, "db.migrate", "summary", attrs...)
	return nil
}

// migrationSource returns the embedded migrations, or dir when one is given.
// Relative dirs resolve against the working directory.
func migrationSource(dir string) (fs.FS, error) {
	if strings.TrimSpace(dir) == "" {
		return migrations.FS, nil
	}
	path, err := resolveMigrationsDir(dir)
	if err != nil {
		return nil, err
	}
	return os.DirFS(path), nil
}

func resolveMigrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, dir), nil
}

func upFiles(fsys fs.FS) []string {
	names, _ := fs.Glob(fsys, "*.up.sql")
	sort.Strings(names)
	return names
}

// appliedBetween returns the files whose version lies in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
