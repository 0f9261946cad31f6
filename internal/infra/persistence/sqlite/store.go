// Package sqlite persists generated populations to a single SQLite table as
// JSON payloads. Reads are served from a hydrated in-memory store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"carecensus/internal/infra/persistence/memory"
	"carecensus/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PopulationStore = (*Store)(nil)

// Store writes every Save and Delete through to SQLite.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and loads stored populations.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "carecensus.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS populations (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create populations table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT id, payload FROM populations`)
	if err != nil {
		return fmt.Errorf("select populations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var pops []domain.Population
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var p domain.Population
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode population %s: %w", id, err)
		}
		pops = append(pops, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate populations: %w", err)
	}
	s.Import(pops)
	return nil
}

// Save writes the population to SQLite, then to the in-memory view.
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
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO populations(id,created_at,payload) VALUES(?,?,?) ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at, payload=excluded.payload`,
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339Nano), data); err != nil {
		return fmt.Errorf("upsert population %s: %w", p.ID, err)
	}
	return s.Store.Save(ctx, p)
}

// Delete removes the population row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM populations WHERE id = ?`, id)
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
