// Package metrics exposes Prometheus instruments for generation, snapshot
// and export operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the carecensus instruments.
type Metrics struct {
	ChildrenGenerated prometheus.Counter
	EpisodesGenerated prometheus.Counter
	GenerateLatency   prometheus.Histogram
	SnapshotChildren  *prometheus.CounterVec
	ExportArtifacts   *prometheus.CounterVec
	ExportOutcomes    *prometheus.CounterVec
	PopulationsStored prometheus.Counter
}

// New registers every instrument on reg. A nil reg uses a private registry
// so tests and repeated construction never collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		ChildrenGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "carecensus_children_generated_total",
			Help: "Total synthetic children generated",
		}),
		EpisodesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "carecensus_episodes_generated_total",
			Help: "Total care episodes generated",
		}),
		GenerateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carecensus_generate_duration_seconds",
			Help:    "Duration of population generation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SnapshotChildren: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carecensus_snapshot_children_total",
			Help: "Children considered by census snapshots by outcome",
		}, []string{"outcome"}), // outcome: "retained", "excluded"
		ExportArtifacts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carecensus_export_artifacts_total",
			Help: "Export artifacts written by format",
		}, []string{"format"}),
		ExportOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carecensus_exports_total",
			Help: "Export jobs by final status",
		}, []string{"status"}),
		PopulationsStored: f.NewCounter(prometheus.CounterOpts{
			Name: "carecensus_populations_stored_total",
			Help: "Populations persisted to the population store",
		}),
	}
}

// ObserveGeneration records one generated batch.
func (m *Metrics) ObserveGeneration(children, episodes int, d time.Duration) {
	if m == nil {
		return
	}
	m.ChildrenGenerated.Add(float64(children))
	m.EpisodesGenerated.Add(float64(episodes))
	m.GenerateLatency.Observe(d.Seconds())
}

// ObserveSnapshot records how many children a snapshot kept and dropped.
func (m *Metrics) ObserveSnapshot(retained, excluded int) {
	if m == nil {
		return
	}
	m.SnapshotChildren.WithLabelValues("retained").Add(float64(retained))
	m.SnapshotChildren.WithLabelValues("excluded").Add(float64(excluded))
}

// IncrementArtifact records one stored export artifact.
func (m *Metrics) IncrementArtifact(format string) {
	if m != nil {
		m.ExportArtifacts.WithLabelValues(format).Inc()
	}
}

// IncrementExport records a finished export job.
func (m *Metrics) IncrementExport(status string) {
	if m != nil {
		m.ExportOutcomes.WithLabelValues(status).Inc()
	}
}

// IncrementPopulationsStored records one saved population.
func (m *Metrics) IncrementPopulationsStored() {
	if m != nil {
		m.PopulationsStored.Inc()
	}
}
