// Package core composes generation, the census snapshot and export behind a
// single Service with persistence, logging, metrics and tracing.
package core

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"carecensus/internal/blob"
	"carecensus/internal/census"
	"carecensus/internal/export"
	"carecensus/internal/platform/metrics"
	"carecensus/internal/synth"
	"carecensus/pkg/domain"
)

const tracerName = "carecensus/internal/core"

// Service generates, stores, snapshots and exports populations.
type Service struct {
	store     domain.PopulationStore
	artifacts blob.Store
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	workers   int
	now       func() time.Time
	newID     func() string
}

// Option customises Service construction.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithArtifactStore sets the blob store exports are published to.
func WithArtifactStore(store blob.Store) Option {
	return func(s *Service) { s.artifacts = store }
}

// WithWorkers bounds parallel child generation; zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithClock overrides the time source used for CreatedAt stamps and
// unseeded requests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides population and export id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a service over store.
func NewService(store domain.PopulationStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("population store required")
	}
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Store returns the underlying population store.
func (s *Service) Store() domain.PopulationStore { return s.store }

// GenerateRequest describes a population to generate. A nil Seed derives one
// from the clock; a nil Probabilities uses the defaults.
type GenerateRequest struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Count         int
	Seed          *uint64
	Probabilities *domain.Probabilities
}

// Generate builds a population and saves it.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (pop domain.Population, err error) {
	ctx, span := s.tracer.Start(ctx, "core.Generate", trace.WithAttributes(attribute.Int("carecensus.count", req.Count)))
	defer func() { endSpan(span, err) }()

	probs := domain.DefaultProbabilities()
	if req.Probabilities != nil {
		probs = *req.Probabilities
	}
	var seed uint64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed = uint64(s.now().UnixNano())
	}
	gen, err := synth.New(synth.Config{
		WindowStart:   req.WindowStart,
		WindowEnd:     req.WindowEnd,
		Probabilities: probs,
		Seed:          seed,
		Workers:       s.workers,
	})
	if err != nil {
		return domain.Population{}, err
	}
	started := time.Now()
	children, err := gen.Generate(ctx, req.Count)
	if err != nil {
		s.logger.Warn("population generation failed", zap.Int("count", req.Count), zap.Uint64("seed", seed), zap.Error(err))
		return domain.Population{}, err
	}
	episodes := 0
	for _, c := range children {
		episodes += len(c.Episodes)
	}
	s.metrics.ObserveGeneration(len(children), episodes, time.Since(started))

	pop = domain.Population{
		ID:        s.newID(),
		CreatedAt: s.now(),
		Params: domain.GenerationParams{
			WindowStart:   req.WindowStart,
			WindowEnd:     req.WindowEnd,
			Seed:          seed,
			Count:         req.Count,
			Probabilities: probs,
		},
		Children: children,
	}
	if err := s.store.Save(ctx, pop); err != nil {
		return domain.Population{}, fmt.Errorf("save population: %w", err)
	}
	s.metrics.IncrementPopulationsStored()
	span.SetAttributes(attribute.String("carecensus.population_id", pop.ID), attribute.Int("carecensus.episodes", episodes))
	s.logger.Info("population generated",
		zap.String("population_id", pop.ID),
		zap.Int("children", len(children)),
		zap.Int("episodes", episodes),
		zap.Uint64("seed", seed),
	)
	return pop, nil
}

// GetPopulation returns a stored population.
func (s *Service) GetPopulation(ctx context.Context, id string) (domain.Population, error) {
	return s.store.Get(ctx, id)
}

// ListPopulations returns stored population summaries, newest first.
func (s *Service) ListPopulations(ctx context.Context) ([]domain.PopulationSummary, error) {
	return s.store.List(ctx)
}

// DeletePopulation removes a stored population and reports whether it existed.
func (s *Service) DeletePopulation(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// Snapshot loads a population and restricts it to window.
func (s *Service) Snapshot(ctx context.Context, populationID string, window domain.ReportingWindow) (children []domain.Child, err error) {
	ctx, span := s.tracer.Start(ctx, "core.Snapshot", trace.WithAttributes(attribute.String("carecensus.population_id", populationID)))
	defer func() { endSpan(span, err) }()

	pop, err := s.store.Get(ctx, populationID)
	if err != nil {
		return nil, err
	}
	children, err = census.Snapshot(window, pop.Children)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSnapshot(len(children), len(pop.Children)-len(children))
	s.logger.Debug("census snapshot",
		zap.String("population_id", populationID),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
		zap.Int("retained", len(children)),
		zap.Int("excluded", len(pop.Children)-len(children)),
	)
	return children, nil
}

// ExportRequest selects a population, a census window and output formats.
// An empty ID is generated; empty Formats selects every format.
type ExportRequest struct {
	ID           string
	PopulationID string
	Window       domain.ReportingWindow
	Formats      []export.Format
}

// ExportResult lists the artifacts an export stored.
type ExportResult struct {
	ID        string      `json:"id"`
	Prefix    string      `json:"prefix"`
	Children  int         `json:"children"`
	Artifacts []blob.Info `json:"artifacts"`
}

// ExportPrefix is the blob key prefix for an export id.
func ExportPrefix(id string) string { return path.Join("exports", id) }

// Export snapshots a population and publishes the rendered files.
func (s *Service) Export(ctx context.Context, req ExportRequest) (res ExportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "core.Export", trace.WithAttributes(attribute.String("carecensus.population_id", req.PopulationID)))
	defer func() { endSpan(span, err) }()

	if s.artifacts == nil {
		return ExportResult{}, fmt.Errorf("artifact store not configured")
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = export.AllFormats
	}
	children, err := s.Snapshot(ctx, req.PopulationID, req.Window)
	if err != nil {
		return ExportResult{}, err
	}
	files, err := export.RenderAll(formats, children)
	if err != nil {
		return ExportResult{}, err
	}
	id := req.ID
	if id == "" {
		id = s.newID()
	}
	prefix := ExportPrefix(id)
	infos, err := export.Publish(ctx, s.artifacts, prefix, files)
	if err != nil {
		return ExportResult{}, err
	}
	for _, f := range files {
		s.metrics.IncrementArtifact(string(f.Format))
	}
	span.SetAttributes(attribute.String("carecensus.export_id", id), attribute.Int("carecensus.artifacts", len(infos)))
	s.logger.Info("census exported",
		zap.String("export_id", id),
		zap.String("population_id", req.PopulationID),
		zap.Int("children", len(children)),
		zap.Int("artifacts", len(infos)),
		zap.String("store", string(s.artifacts.Driver())),
	)
	return ExportResult{ID: id, Prefix: prefix, Children: len(children), Artifacts: infos}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
