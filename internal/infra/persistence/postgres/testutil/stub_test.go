package testutil

import (
	"context"
	"testing"
)

func TestStubInsertSelectDelete(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	if _, err := db.ExecContext(ctx, `INSERT INTO populations(id,payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload`, "a", []byte("1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO populations(id,payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload`, "a", []byte("2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rows := conn.Rows("populations")
	if len(rows) != 1 || string(rows[0]["payload"].([]byte)) != "2" {
		t.Fatalf("unexpected rows %#v", rows)
	}

	var id string
	var payload []byte
	if err := db.QueryRowContext(ctx, `SELECT id, payload FROM populations`).Scan(&id, &payload); err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "a" || string(payload) != "2" {
		t.Fatalf("unexpected row %s %s", id, payload)
	}

	res, err := db.ExecContext(ctx, `DELETE FROM populations WHERE id = $1`, "a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("expected 1 row affected, got %d", n)
	}
	res, _ = db.ExecContext(ctx, `DELETE FROM populations WHERE id = $1`, "a")
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("expected 0 rows affected, got %d", n)
	}
}

func TestStubFailures(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false
	conn.FailTables = map[string]bool{"populations": true}
	if _, err := db.QueryContext(ctx, `SELECT id FROM populations`); err == nil {
		t.Fatalf("expected query failure")
	}
	if _, err := db.ExecContext(ctx, `SELECT nonsense`); err != nil {
		t.Fatalf("unrecognised exec should be accepted: %v", err)
	}
	if _, _, err := parseSelect("UPDATE x"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, _, err := parseDelete("DELETE FROM x"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenSharesConnection(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	if _, err := db.ExecContext(ctx, `INSERT INTO populations(id) VALUES($1)`, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = db.Close()
	again := Open(conn)
	var id string
	if err := again.QueryRowContext(ctx, `SELECT id FROM populations`).Scan(&id); err != nil || id != "x" {
		t.Fatalf("reopen select: %q %v", id, err)
	}
}
