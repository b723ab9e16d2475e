package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM lessons WHERE id=? AND course_id=? LIMIT ?`
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	want := `SELECT id FROM lessons WHERE id=$1 AND course_id=$2 LIMIT $3`
	if got := Rebind(DriverPostgres, q); got != want {
		t.Errorf("postgres rebind = %s, want %s", got, want)
	}
}

func TestOpen_SQLiteSchema(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "quiz.db") + "?mode=rwc"
	dbh, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dbh.Close()

	for _, table := range []string{"lessons", "attempts", "submissions", "event_log"} {
		var name string
		err := dbh.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	// schema is idempotent
	if err := ensureSchema(ctx, dbh, DriverSQLite); err != nil {
		t.Fatalf("second ensureSchema: %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("oracle"), ""); err == nil {
		t.Fatal("expected error")
	}
}
