// Command carecensus generates synthetic SSDA903 populations and serves the
// population and export API.
//
// Usage:
//
//	carecensus generate -start 2015-01-01 -end 2020-01-01 -count 100 -out ./artifacts
//	carecensus serve
//
// Without -out, generate publishes to the store named by CARECENSUS_BLOB_*.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carecensus/internal/adapters/exports"
	"carecensus/internal/blob"
	"carecensus/internal/core"
	"carecensus/internal/export"
	"carecensus/internal/infra/persistence/memory"
	"carecensus/internal/platform/config"
	"carecensus/internal/platform/logging"
	"carecensus/internal/platform/metrics"
	"carecensus/pkg/domain"
)

const (
	dateLayout      = time.DateOnly
	shutdownTimeout = 10 * time.Second
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "carecensus:", err)
		exitFunc(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: carecensus <generate|serve> [flags]")
	}
	switch args[0] {
	case "generate":
		return runGenerate(ctx, args[1:], stdout)
	case "serve":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runServe(ctx, cfg)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

type generateFlags struct {
	start, end             time.Time
	censusStart, censusEnd time.Time
	count                  int
	seed                   *uint64
	formats                []export.Format
	out                    string
	workers                int
}

func parseGenerateFlags(args []string) (generateFlags, error) {
	fset := flag.NewFlagSet("generate", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	start := fset.String("start", "", "generation window start (YYYY-MM-DD)")
	end := fset.String("end", "", "generation window end (YYYY-MM-DD)")
	count := fset.Int("count", 100, "number of children to generate")
	seed := fset.Uint64("seed", 0, "random seed; omitted derives one from the clock")
	censusStart := fset.String("census-start", "", "census window start; defaults to -start")
	censusEnd := fset.String("census-end", "", "census window end; defaults to -end")
	formats := fset.String("formats", "", "comma separated export formats (csv,xml,json)")
	out := fset.String("out", "", "artifact output directory; omitted uses the CARECENSUS_BLOB_* store")
	workers := fset.Int("workers", 0, "generation workers; zero uses GOMAXPROCS")
	if err := fset.Parse(args); err != nil {
		return generateFlags{}, err
	}

	var gf generateFlags
	var err error
	if gf.start, err = parseDate("start", *start); err != nil {
		return generateFlags{}, err
	}
	if gf.end, err = parseDate("end", *end); err != nil {
		return generateFlags{}, err
	}
	gf.censusStart, gf.censusEnd = gf.start, gf.end
	if *censusStart != "" {
		if gf.censusStart, err = parseDate("census-start", *censusStart); err != nil {
			return generateFlags{}, err
		}
	}
	if *censusEnd != "" {
		if gf.censusEnd, err = parseDate("census-end", *censusEnd); err != nil {
			return generateFlags{}, err
		}
	}
	if *count < 0 {
		return generateFlags{}, errors.New("count must be non-negative")
	}
	if gf.formats, err = export.ParseFormats(*formats); err != nil {
		return generateFlags{}, err
	}
	fset.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			s := *seed
			gf.seed = &s
		}
	})
	gf.count = *count
	gf.out = strings.TrimSpace(*out)
	gf.workers = *workers
	return gf, nil
}

func parseDate(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("-%s is required", name)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func runGenerate(ctx context.Context, args []string, stdout io.Writer) error {
	gf, err := parseGenerateFlags(args)
	if err != nil {
		return err
	}
	window, err := domain.NewReportingWindow(gf.censusStart, gf.censusEnd)
	if err != nil {
		return err
	}
	artifacts, err := openArtifacts(ctx, gf.out)
	if err != nil {
		return err
	}
	svc, err := core.NewService(memory.NewStore(), core.WithArtifactStore(artifacts), core.WithWorkers(gf.workers))
	if err != nil {
		return err
	}
	pop, err := svc.Generate(ctx, core.GenerateRequest{
		WindowStart: gf.start,
		WindowEnd:   gf.end,
		Count:       gf.count,
		Seed:        gf.seed,
	})
	if err != nil {
		return err
	}
	res, err := svc.Export(ctx, core.ExportRequest{
		ID:           pop.ID,
		PopulationID: pop.ID,
		Window:       window,
		Formats:      gf.formats,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"population": pop.Summary(), "export": res})
}

func openArtifacts(ctx context.Context, out string) (blob.Store, error) {
	if out != "" {
		return blob.NewFilesystem(out)
	}
	cfg, err := config.LoadBlob()
	if err != nil {
		return nil, err
	}
	return blob.Open(ctx, cfg)
}

// app bundles the long-running pieces of the serve command.
type app struct {
	handler http.Handler
	worker  *exports.Worker
	store   domain.PopulationStore
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(a.worker.Stop(ctx), a.store.Close())
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) (*app, error) {
	m := metrics.New(reg)
	store, err := core.OpenPopulationStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	artifacts, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svc, err := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetrics(m),
		core.WithArtifactStore(artifacts),
		core.WithWorkers(cfg.Workers),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	worker := exports.NewWorker(svc, exports.WithWorkerLogger(logger), exports.WithWorkerMetrics(m))
	worker.Start()
	handler := exports.NewHandler(svc, worker).Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &app{handler: handler, worker: worker, store: store}, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: a.handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.StorageDriver), zap.String("blob", cfg.Blob.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = a.close(context.Background())
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return errors.Join(srv.Shutdown(shutdownCtx), a.close(shutdownCtx))
}
