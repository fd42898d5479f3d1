package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Storage is what seeders may read from or write to.
type Storage struct {
	// DB is nil when the database is disabled.
	DB *sqlx.DB
}

// Seeder runs once at startup, after migrations.
type Seeder interface {
	Seed(ctx context.Context, st Storage) error
}

// SeederFunc lets a plain function act as a Seeder.
type SeederFunc func(ctx context.Context, st Storage) error

func (f SeederFunc) Seed(ctx context.Context, st Storage) error { return f(ctx, st) }
