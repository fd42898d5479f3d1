package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/intakebot/migrations"
)

// postgresBackend runs against TEST_DATABASE_URL inside a throwaway schema.
// The test is skipped when the variable is unset.
func postgresBackend(t *testing.T) (*PostgresBackend, *sqlx.DB) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	// One connection so the search_path below applies to every statement.
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf("intake_test_%d", time.Now().UnixNano())
	for _, stmt := range []string{
		"CREATE SCHEMA " + schema,
		"SET search_path TO " + schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = db.Close()
	})

	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil || len(ups) == 0 {
		t.Fatalf("migrations: %v %v", ups, err)
	}
	for _, name := range ups {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}
	return NewPostgresBackend(db), db
}

func TestPostgresBackendEmptyTableIsNoSource(t *testing.T) {
	backend, _ := postgresBackend(t)
	if _, err := backend.Load(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, expected ErrNoSource", err)
	}
}

func TestPostgresBackendSaveReplacesSet(t *testing.T) {
	backend, _ := postgresBackend(t)
	ctx := context.Background()

	first := Texts{"ru": {"final": "Спасибо", "question_1": "Вопрос"}, "en": {"final": "Thanks"}}
	if err := backend.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := backend.Load(ctx)
	if err != nil || !reflect.DeepEqual(got, first) {
		t.Fatalf("load = %v, %v", got, err)
	}

	second := Texts{"en": {"final": "Bye"}}
	if err := backend.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := backend.Load(ctx); !reflect.DeepEqual(got, second) {
		t.Fatalf("stale rows survived: %v", got)
	}
}

func TestPostgresBackendInsertFailureKeepsPriorRows(t *testing.T) {
	backend, db := postgresBackend(t)
	ctx := context.Background()

	prior := Texts{"en": {"final": "Thanks"}}
	if err := backend.Save(ctx, prior); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, stmt := range []string{
		`CREATE FUNCTION reject_bad_key() RETURNS trigger AS $$
		BEGIN
			IF NEW.key = 'bad' THEN RAISE EXCEPTION 'bad key'; END IF;
			RETURN NEW;
		END $$ LANGUAGE plpgsql`,
		`CREATE TRIGGER reject_bad_key BEFORE INSERT ON intake_texts
			FOR EACH ROW EXECUTE FUNCTION reject_bad_key()`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("trigger: %v", err)
		}
	}

	err := backend.Save(ctx, Texts{"en": {"final": "Bye", "bad": "x"}})
	if err == nil {
		t.Fatal("expected insert failure")
	}
	got, err := backend.Load(ctx)
	if err != nil || !reflect.DeepEqual(got, prior) {
		t.Fatalf("rollback lost rows: %v, %v", got, err)
	}
}
