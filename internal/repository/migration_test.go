package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingsapi/meetings/internal/testutil"
)

func TestMigration_MeetingsSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	for _, col := range []string{
		"id",
		"title",
		"description",
		"start_datetime",
		"end_datetime",
		"attendees",
		"accepted",
		"created_at",
		"updated_at",
	} {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "meetings", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("column %q missing from meetings", col)
			}
		})
	}
}

func TestMigration_Constraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	insert := func(id, title string, start, end time.Time) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO meetings (id, title, start_datetime, end_datetime, attendees)
			VALUES ($1, $2, $3, $4, ARRAY['alice@gmail.com'])
		`, id, title, start, end)
		return err
	}

	if err := insert("m1", "standup", start, start.Add(time.Hour)); err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	tests := []struct {
		name     string
		id       string
		title    string
		end      time.Time
		wantCode string
	}{
		{"duplicate title", "m2", "standup", start.Add(time.Hour), "23505"},
		{"empty title", "m3", "", start.Add(time.Hour), "23514"},
		{"end before start", "m4", "retro", start.Add(-time.Hour), "23514"},
		{"zero duration", "m5", "retro", start, "23514"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := insert(tt.id, tt.title, start, tt.end)
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Fatalf("expected a Postgres error, got %v", err)
			}
			if pgErr.Code != tt.wantCode {
				t.Errorf("SQLSTATE = %s, want %s", pgErr.Code, tt.wantCode)
			}
		})
	}
}

func TestMigration_RollbackAndReapply(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	applyMigration(t, ctx, pool, "000001_meetings.down.sql")
	exists, err := tableExists(ctx, pool, "meetings")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("meetings table should not exist after rollback")
	}

	applyMigration(t, ctx, pool, "000001_meetings.up.sql")
	// A second up must be a no-op.
	applyMigration(t, ctx, pool, "000001_meetings.up.sql")

	if exists, _ := tableExists(ctx, pool, "meetings"); !exists {
		t.Error("meetings table should exist after reapply")
	}
}

func applyMigration(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}
	sql, err := os.ReadFile(filepath.Join(root, "migrations", name))
	if err != nil {
		t.Fatalf("read migration %s: %v", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		t.Fatalf("apply migration %s: %v", name, err)
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetMeetingsSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
