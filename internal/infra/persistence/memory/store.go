// Package memory provides the in-process population store. The SQLite and
// Postgres stores hydrate one of these on open and write through on change.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"carecensus/pkg/domain"
)

var _ domain.PopulationStore = (*Store)(nil)

// Store keeps populations in a map guarded by a RWMutex. Every value crossing
// the API boundary is deep copied.
type Store struct {
	mu          sync.RWMutex
	populations map[string]domain.Population
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{populations: make(map[string]domain.Population)}
}

// Save inserts or replaces a population by ID.
func (s *Store) Save(ctx context.Context, p domain.Population) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("population id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.populations[p.ID] = p.Clone()
	return nil
}

// Get returns the population or domain.ErrPopulationNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.Population, error) {
	if err := ctx.Err(); err != nil {
		return domain.Population{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.populations[id]
	if !ok {
		return domain.Population{}, fmt.Errorf("population %s: %w", id, domain.ErrPopulationNotFound)
	}
	return p.Clone(), nil
}

// List returns summaries ordered newest first, ties broken by ID.
func (s *Store) List(ctx context.Context) ([]domain.PopulationSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.PopulationSummary, 0, len(s.populations))
	for _, p := range s.populations {
		out = append(out, p.Summary())
	}
	s.mu.RUnlock()
	SortSummaries(out)
	return out, nil
}

// Delete removes a population and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.populations[id]
	delete(s.populations, id)
	return ok, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Import replaces the store contents with the provided populations.
func (s *Store) Import(pops []domain.Population) {
	next := make(map[string]domain.Population, len(pops))
	for _, p := range pops {
		next[p.ID] = p.Clone()
	}
	s.mu.Lock()
	s.populations = next
	s.mu.Unlock()
}

// Export returns deep copies of every stored population ordered by ID.
func (s *Store) Export() []domain.Population {
	s.mu.RLock()
	out := make([]domain.Population, 0, len(s.populations))
	for _, p := range s.populations {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortSummaries orders summaries newest first, ties broken by ID.
func SortSummaries(out []domain.PopulationSummary) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}
