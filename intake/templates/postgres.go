package templates

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresBackend stores one row per (lang, key) in intake_texts.
// The schema lives in migrations/ and is applied at bootstrap.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend wraps an open connection pool.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

type textRow struct {
	Lang string `db:"lang"`
	Key  string `db:"key"`
	Body string `db:"body"`
}

// Describe implements Backend.
func (b *PostgresBackend) Describe() string {
	return "postgres:intake_texts"
}

// Load implements Backend.
func (b *PostgresBackend) Load(ctx context.Context) (Texts, error) {
	var rows []textRow
	if err := b.db.SelectContext(ctx, &rows, `SELECT lang, key, body FROM intake_texts ORDER BY lang, key`); err != nil {
		return nil, fmt.Errorf("select intake_texts: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoSource
	}
	texts := make(Texts)
	for _, row := range rows {
		inner, ok := texts[row.Lang]
		if !ok {
			inner = make(map[string]string)
			texts[row.Lang] = inner
		}
		inner[row.Key] = row.Body
	}
	return texts, nil
}

// Save implements Backend. The table is replaced inside one transaction so a
// concurrent reader never observes a half-written set.
func (b *PostgresBackend) Save(ctx context.Context, texts Texts) (err error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM intake_texts`); err != nil {
		return fmt.Errorf("clear intake_texts: %w", err)
	}
	rows := flatten(texts)
	if len(rows) > 0 {
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO intake_texts (lang, key, body) VALUES (:lang, :key, :body)`,
			rows,
		)
		if err != nil {
			return fmt.Errorf("insert intake_texts: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func flatten(texts Texts) []textRow {
	rows := make([]textRow, 0, len(texts)*8)
	for lang, keys := range texts {
		for key, body := range keys {
			rows = append(rows, textRow{Lang: lang, Key: key, Body: body})
		}
	}
	return rows
}
