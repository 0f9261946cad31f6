package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"carecensus/internal/infra/persistence/postgres/testutil"
	"carecensus/pkg/domain"
)

func samplePopulation(id string, created time.Time) domain.Population {
	return domain.Population{
		ID:        id,
		CreatedAt: created,
		Params: domain.GenerationParams{
			WindowStart:   domain.Date(2017, time.April, 1),
			WindowEnd:     domain.Date(2018, time.April, 1),
			Seed:          9,
			Count:         1,
			Probabilities: domain.DefaultProbabilities(),
		},
		Children: []domain.Child{{ID: 5, Sex: domain.SexMale, DateOfBirth: domain.Date(2010, time.July, 7)}},
	}
}

func openWith(t *testing.T, db *sql.DB) (*Store, error) {
	t.Helper()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	return NewStore(context.Background(), "")
}

func TestNewStoreCreatesTableAndPersists(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	store, err := openWith(t, db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS POPULATIONS") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected populations DDL, got %v", conn.Execs)
	}

	t0 := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, samplePopulation("p1", t0)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, samplePopulation("p1", t0.Add(time.Hour))); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if err := store.Save(ctx, samplePopulation("p2", t0)); err != nil {
		t.Fatalf("save p2: %v", err)
	}
	if rows := conn.Rows("populations"); len(rows) != 2 {
		t.Fatalf("expected upsert to keep 2 rows, got %d", len(rows))
	}
	if ok, err := store.Delete(ctx, "p2"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "p2"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := openWith(t, testutil.Open(conn))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(t0.Add(time.Hour)) || len(got.Children) != 1 {
		t.Fatalf("unexpected population %#v", got)
	}
	if _, err := reopened.Get(ctx, "p2"); !errors.Is(err, domain.ErrPopulationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewStoreFailures(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	if _, err := openWith(t, db); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}

	db, conn = testutil.NewStubDB()
	conn.FailExec = true
	if _, err := openWith(t, db); err == nil || !strings.Contains(err.Error(), "ensure populations table") {
		t.Fatalf("expected ddl error, got %v", err)
	}

	db, conn = testutil.NewStubDB()
	conn.Tables["populations"] = []map[string]any{{"id": "bad", "payload": []byte("{")}}
	if _, err := openWith(t, db); err == nil || !strings.Contains(err.Error(), "decode population bad") {
		t.Fatalf("expected decode error, got %v", err)
	}

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestSaveFailuresLeaveMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	store, err := openWith(t, db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailCommit = true
	if err := store.Save(ctx, samplePopulation("p1", time.Now())); err == nil {
		t.Fatalf("expected commit failure")
	}
	conn.FailCommit = false
	conn.FailBegin = true
	if err := store.Save(ctx, samplePopulation("p1", time.Now())); err == nil {
		t.Fatalf("expected begin failure")
	}
	if _, err := store.Get(ctx, "p1"); !errors.Is(err, domain.ErrPopulationNotFound) {
		t.Fatalf("failed save leaked into memory: %v", err)
	}
	if err := store.Save(ctx, domain.Population{}); err == nil {
		t.Fatalf("expected id error")
	}
}
