// Package postgres provides a Postgres-backed population store that mirrors the
// in-memory semantics and writes every change through to a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"carecensus/internal/infra/persistence/memory"
	"carecensus/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PopulationStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/carecensus?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists populations to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using dsn (falls back to defaultDSN),
// ensures the populations table exists and hydrates the in-memory view.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	pops, err := loadPopulations(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.Import(pops)
	return &Store{Store: mem, db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS populations (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure populations table: %w", err)
	}
	return nil
}

func loadPopulations(ctx context.Context, db *sql.DB) ([]domain.Population, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM populations`)
	if err != nil {
		return nil, fmt.Errorf("select populations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var pops []domain.Population
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan population: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var p domain.Population
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode population %s: %w", id, err)
		}
		pops = append(pops, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate populations: %w", err)
	}
	return pops, nil
}

// Save upserts the population row inside a transaction, then updates memory.
func (s *Store) Save(ctx context.Context, p domain.Population) error {
	if p.ID == "" {
		return fmt.Errorf("population id required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode population %s: %w", p.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO populations(id,created_at,payload) VALUES($1,$2,$3) ON CONFLICT(id) DO UPDATE SET created_at=EXCLUDED.created_at, payload=EXCLUDED.payload`,
		p.ID, p.CreatedAt.UTC(), data); err != nil {
		return fmt.Errorf("upsert population %s: %w", p.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return s.Store.Save(ctx, p)
}

// Delete removes the population row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM populations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete population %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if _, err := s.Store.Delete(ctx, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
