package synth

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"carecensus/internal/sampler"
	"carecensus/pkg/domain"
)

// Config parameterises a Generator.
type Config struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Probabilities domain.Probabilities
	Seed          uint64
	// Workers bounds parallel child generation; zero means GOMAXPROCS.
	Workers int
}

// Generator produces batches of children. Output depends only on the
// Config and count, never on scheduling.
type Generator struct {
	cfg Config
}

// New validates cfg and returns a Generator.
func New(cfg Config) (*Generator, error) {
	if _, err := domain.NewReportingWindow(cfg.WindowStart, cfg.WindowEnd); err != nil {
		return nil, err
	}
	if err := cfg.Probabilities.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be non-negative, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{cfg: cfg}, nil
}

// Generate returns count children in a stable order. Identifiers and
// per-child seeds are drawn sequentially from the batch seed before the
// children are built in parallel. Any failure fails the whole batch with a
// domain.ChildGenerationError naming the child index.
func (g *Generator) Generate(ctx context.Context, count int) ([]domain.Child, error) {
	if count < 0 {
		return nil, domain.ConfigurationError{Field: "count", Reason: fmt.Sprintf("%d is negative", count)}
	}
	if count > sampler.MaxChildID+1 {
		return nil, domain.ConfigurationError{
			Field:  "count",
			Reason: fmt.Sprintf("%d exceeds the %d available child identifiers", count, sampler.MaxChildID+1),
		}
	}
	root := sampler.NewSeeded(g.cfg.Seed)
	issuer := sampler.NewIdentityIssuer(root)
	ids := make([]Identity, count)
	seeds := make([]uint64, count)
	for i := range ids {
		id, err := issuer.ChildID()
		if err != nil {
			return nil, domain.ChildGenerationError{Index: i, Err: err}
		}
		ids[i] = Identity{ID: id, UPN: issuer.UPN()}
		seeds[i] = root.Uint64()
	}

	children := make([]domain.Child, count)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i := range children {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := NewBuilder(sampler.NewSeeded(seeds[i]), g.cfg.Probabilities)
			if err != nil {
				return domain.ChildGenerationError{Index: i, Err: err}
			}
			child, err := b.Child(ids[i], g.cfg.WindowStart, g.cfg.WindowEnd)
			if err != nil {
				return domain.ChildGenerationError{Index: i, Err: err}
			}
			children[i] = child
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return children, nil
}
