package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"carecensus/pkg/domain"
)

func population(id string, created time.Time, children ...domain.Child) domain.Population {
	return domain.Population{
		ID:        id,
		CreatedAt: created,
		Params:    domain.GenerationParams{Seed: 7, Count: len(children), Probabilities: domain.DefaultProbabilities()},
		Children:  children,
	}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	child := domain.Child{ID: 1, Episodes: []domain.Episode{{StartDate: t0, ReasonForNewEpisode: domain.RNEStarted}}}

	if err := s.Save(ctx, population("a", t0, child)); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.Save(ctx, population("b", t0.Add(time.Hour))); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := s.Save(ctx, domain.Population{}); err == nil {
		t.Fatalf("expected missing id error")
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Children[0].Episodes[0].ReasonForNewEpisode = "mutated"
	again, _ := s.Get(ctx, "a")
	if again.Children[0].Episodes[0].ReasonForNewEpisode != domain.RNEStarted {
		t.Fatalf("store leaked internal state")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].Children != 1 {
		t.Fatalf("unexpected list %#v", list)
	}

	ok, err := s.Delete(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "a"); ok {
		t.Fatalf("expected second delete to report missing")
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, domain.ErrPopulationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestImportExport(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Import([]domain.Population{population("z", t0), population("m", t0)})
	out := s.Export()
	if len(out) != 2 || out[0].ID != "m" || out[1].ID != "z" {
		t.Fatalf("unexpected export %#v", out)
	}
	s.Import(nil)
	if len(s.Export()) != 0 {
		t.Fatalf("expected import to replace contents")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()
	if err := s.Save(ctx, population("a", time.Now())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
