package domain

import (
	"context"
	"time"
)

// GenerationParams records how a population was produced so it can be
// regenerated from the same seed.
type GenerationParams struct {
	WindowStart   time.Time     `json:"window_start"`
	WindowEnd     time.Time     `json:"window_end"`
	Seed          uint64        `json:"seed"`
	Count         int           `json:"count"`
	Probabilities Probabilities `json:"probabilities"`
}

// Population is a stored batch of generated children.
type Population struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Params    GenerationParams `json:"params"`
	Children  []Child          `json:"children"`
}

// Clone deep copies the population.
func (p Population) Clone() Population {
	out := p
	out.Children = CloneChildren(p.Children)
	return out
}

// PopulationSummary is the lightweight listing view of a stored population.
type PopulationSummary struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Params    GenerationParams `json:"params"`
	Children  int              `json:"children"`
}

// Summary returns the listing view of p.
func (p Population) Summary() PopulationSummary {
	return PopulationSummary{ID: p.ID, CreatedAt: p.CreatedAt, Params: p.Params, Children: len(p.Children)}
}

// PopulationStore is the persistence abstraction for generated populations.
// Implementations must return deep copies so callers never share state with the store.
type PopulationStore interface {
	Save(ctx context.Context, p Population) error
	Get(ctx context.Context, id string) (Population, error)
	List(ctx context.Context) ([]PopulationSummary, error)
	Delete(ctx context.Context, id string) (bool, error)
	Close() error
}
