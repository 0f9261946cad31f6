// Package exports runs census exports asynchronously and serves the HTTP API
// for populations and exports.
package exports

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carecensus/internal/blob"
	"carecensus/internal/core"
	"carecensus/internal/export"
	"carecensus/internal/platform/metrics"
	"carecensus/pkg/domain"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

const defaultQueueSize = 32

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID           string          `json:"id"`
	PopulationID string          `json:"population_id"`
	CensusStart  time.Time       `json:"census_start"`
	CensusEnd    time.Time       `json:"census_end"`
	Formats      []export.Format `json:"formats"`
	Status       Status          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Children     int             `json:"children"`
	Prefix       string          `json:"prefix,omitempty"`
	Artifacts    []blob.Info     `json:"artifacts,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	out := r
	out.Formats = append([]export.Format(nil), r.Formats...)
	if r.Artifacts != nil {
		out.Artifacts = make([]blob.Info, len(r.Artifacts))
		for i, a := range r.Artifacts {
			a.Metadata = blob.CloneMetadata(a.Metadata)
			out.Artifacts[i] = a
		}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Input is an enqueue request for the worker.
type Input struct {
	PopulationID string
	Window       domain.ReportingWindow
	Formats      []string
}

// Exporter performs one export synchronously.
type Exporter interface {
	Export(ctx context.Context, req core.ExportRequest) (core.ExportResult, error)
}

// Scheduler queues exports and exposes their status.
type Scheduler interface {
	EnqueueExport(ctx context.Context, input Input) (Record, error)
	GetExport(id string) (Record, bool)
}

// WorkerOption customises a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWorkerMetrics sets the instruments used to count finished exports.
func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) { w.metrics = m }
}

// WithQueueSize bounds the number of pending exports.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// Worker executes exports asynchronously on a single goroutine.
type Worker struct {
	exporter  Exporter
	logger    *zap.Logger
	metrics   *metrics.Metrics
	queueSize int

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Scheduler = (*Worker)(nil)

// NewWorker constructs an export worker.
func NewWorker(exporter Exporter, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		exporter:  exporter,
		logger:    zap.NewNop(),
		queueSize: defaultQueueSize,
		jobs:      make(map[string]*Record),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan string, w.queueSize)
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// EnqueueExport validates input, records a queued export and schedules it.
func (w *Worker) EnqueueExport(_ context.Context, input Input) (Record, error) {
	if w.exporter == nil {
		return Record{}, fmt.Errorf("exporter not configured")
	}
	if strings.TrimSpace(input.PopulationID) == "" {
		return Record{}, fmt.Errorf("population id required")
	}
	if err := input.Window.Validate(); err != nil {
		return Record{}, err
	}
	formats, err := export.NormalizeFormats(input.Formats)
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	record := Record{
		ID:           uuid.NewString(),
		PopulationID: input.PopulationID,
		CensusStart:  input.Window.Start,
		CensusEnd:    input.Window.End,
		Formats:      formats,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- record.ID:
	default:
		w.mu.Lock()
		delete(w.jobs, record.ID)
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export queue full")
	}
	w.logger.Info("export queued", zap.String("export_id", record.ID), zap.String("population_id", record.PopulationID))
	return queued, nil
}

// GetExport returns a copy of the export record.
func (w *Worker) GetExport(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	record.Status = StatusRunning
	record.UpdatedAt = time.Now().UTC()
	req := core.ExportRequest{
		ID:           record.ID,
		PopulationID: record.PopulationID,
		Window:       domain.ReportingWindow{Start: record.CensusStart, End: record.CensusEnd},
		Formats:      append([]export.Format(nil), record.Formats...),
	}
	w.mu.Unlock()

	res, err := w.exporter.Export(w.ctx, req)
	if err != nil {
		w.fail(id, err)
		return
	}
	w.complete(id, res)
}

func (w *Worker) complete(id string, res core.ExportResult) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Children = res.Children
		record.Prefix = res.Prefix
		record.Artifacts = res.Artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.metrics.IncrementExport(string(StatusSucceeded))
	w.logger.Info("export succeeded", zap.String("export_id", id), zap.Int("artifacts", len(res.Artifacts)))
}

func (w *Worker) fail(id string, err error) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = err.Error()
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.metrics.IncrementExport(string(StatusFailed))
	w.logger.Warn("export failed", zap.String("export_id", id), zap.Error(err))
}
