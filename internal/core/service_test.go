package core

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"carecensus/internal/blob"
	"carecensus/internal/export"
	"carecensus/internal/infra/persistence/memory"
	"carecensus/internal/platform/config"
	"carecensus/internal/platform/metrics"
	"carecensus/pkg/domain"
)

type fixture struct {
	svc       *Service
	store     *memory.Store
	artifacts blob.Store
	metrics   *metrics.Metrics
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	obs, logs := observer.New(zap.DebugLevel)
	store := memory.NewStore()
	artifacts := blob.NewMemory()
	m := metrics.New(prometheus.NewRegistry())
	seq := 0
	svc, err := NewService(store,
		WithLogger(zap.New(obs)),
		WithMetrics(m),
		WithArtifactStore(artifacts),
		WithWorkers(2),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	require.NoError(t, err)
	return fixture{svc: svc, store: store, artifacts: artifacts, metrics: m, logs: logs}
}

func seed(v uint64) *uint64 { return &v }

func generate(t *testing.T, f fixture, count int) domain.Population {
	t.Helper()
	pop, err := f.svc.Generate(context.Background(), GenerateRequest{
		WindowStart: domain.Date(2015, time.January, 1),
		WindowEnd:   domain.Date(2020, time.January, 1),
		Count:       count,
		Seed:        seed(11),
	})
	require.NoError(t, err)
	return pop
}

func TestGenerateSavesPopulation(t *testing.T) {
	f := newFixture(t)
	pop := generate(t, f, 25)
	require.Equal(t, "id-1", pop.ID)
	require.Len(t, pop.Children, 25)
	require.Equal(t, uint64(11), pop.Params.Seed)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), pop.CreatedAt)

	stored, err := f.svc.GetPopulation(context.Background(), pop.ID)
	require.NoError(t, err)
	require.Equal(t, pop.Children, stored.Children)

	list, err := f.svc.ListPopulations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 25, list[0].Children)

	require.Equal(t, 25.0, testutil.ToFloat64(f.metrics.ChildrenGenerated))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PopulationsStored))
	require.Equal(t, 1, f.logs.FilterMessage("population generated").Len())
}

func TestGenerateIsReproducibleForASeed(t *testing.T) {
	a := generate(t, newFixture(t), 10)
	b := generate(t, newFixture(t), 10)
	require.Equal(t, a.Children, b.Children)
}

func TestGenerateRejectsInvalidWindow(t *testing.T) {
	f := newFixture(t)
	d := domain.Date(2020, time.January, 1)
	_, err := f.svc.Generate(context.Background(), GenerateRequest{WindowStart: d, WindowEnd: d, Count: 1})
	require.ErrorIs(t, err, domain.ErrInvalidWindow)
	list, _ := f.svc.ListPopulations(context.Background())
	require.Empty(t, list)
}

func TestSnapshotAndMetrics(t *testing.T) {
	f := newFixture(t)
	pop := generate(t, f, 40)
	w, err := domain.NewReportingWindow(domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1))
	require.NoError(t, err)

	children, err := f.svc.Snapshot(context.Background(), pop.ID, w)
	require.NoError(t, err)
	require.LessOrEqual(t, len(children), 40)
	retained := testutil.ToFloat64(f.metrics.SnapshotChildren.WithLabelValues("retained"))
	excluded := testutil.ToFloat64(f.metrics.SnapshotChildren.WithLabelValues("excluded"))
	require.Equal(t, float64(len(children)), retained)
	require.Equal(t, 40.0, retained+excluded)

	_, err = f.svc.Snapshot(context.Background(), "missing", w)
	require.ErrorIs(t, err, domain.ErrPopulationNotFound)
}

func TestExportPublishesArtifacts(t *testing.T) {
	f := newFixture(t)
	pop := generate(t, f, 15)
	w, err := domain.NewReportingWindow(domain.Date(2017, time.April, 1), domain.Date(2018, time.April, 1))
	require.NoError(t, err)

	res, err := f.svc.Export(context.Background(), ExportRequest{
		PopulationID: pop.ID,
		Window:       w,
		Formats:      []export.Format{export.FormatCSV, export.FormatXML},
	})
	require.NoError(t, err)
	require.Equal(t, "id-2", res.ID)
	require.Equal(t, "exports/id-2", res.Prefix)
	require.Len(t, res.Artifacts, 10)

	listed, err := f.artifacts.List(context.Background(), "exports/id-2/")
	require.NoError(t, err)
	require.Len(t, listed, 10)
	require.Equal(t, 9.0, testutil.ToFloat64(f.metrics.ExportArtifacts.WithLabelValues("csv")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExportArtifacts.WithLabelValues("xml")))

	_, err = f.svc.Export(context.Background(), ExportRequest{ID: "id-2", PopulationID: pop.ID, Window: w})
	require.ErrorIs(t, err, blob.ErrExists)
}

func TestExportRequiresArtifactStore(t *testing.T) {
	svc, err := NewService(memory.NewStore())
	require.NoError(t, err)
	_, err = svc.Export(context.Background(), ExportRequest{PopulationID: "x"})
	require.Error(t, err)

	_, err = NewService(nil)
	require.Error(t, err)
}

func TestDeletePopulation(t *testing.T) {
	f := newFixture(t)
	pop := generate(t, f, 3)
	ok, err := f.svc.DeletePopulation(context.Background(), pop.ID)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.svc.GetPopulation(context.Background(), pop.ID)
	require.ErrorIs(t, err, domain.ErrPopulationNotFound)
}

func TestOpenPopulationStore(t *testing.T) {
	ctx := context.Background()
	mem, err := OpenPopulationStore(ctx, config.Config{StorageDriver: config.StorageMemory})
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, mem)

	lite, err := OpenPopulationStore(ctx, config.Config{StorageDriver: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	require.NoError(t, lite.Close())

	_, err = OpenPopulationStore(ctx, config.Config{StorageDriver: "mongo"})
	require.Error(t, err)
}
