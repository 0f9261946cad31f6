package exports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"carecensus/internal/core"
	"carecensus/pkg/domain"
)

const dateLayout = time.DateOnly

// Populations is the slice of core.Service the API needs.
type Populations interface {
	Generate(ctx context.Context, req core.GenerateRequest) (domain.Population, error)
	GetPopulation(ctx context.Context, id string) (domain.Population, error)
	ListPopulations(ctx context.Context) ([]domain.PopulationSummary, error)
	DeletePopulation(ctx context.Context, id string) (bool, error)
}

// Handler serves the population and export API.
type Handler struct {
	Populations Populations
	Exports     Scheduler
}

// NewHandler constructs the API handler.
func NewHandler(p Populations, s Scheduler) *Handler {
	return &Handler{Populations: p, Exports: s}
}

// Routes mounts the API on a chi router. A non-nil metrics handler is
// served at /metrics.
func (h *Handler) Routes(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/populations", h.handleGenerate)
		r.Get("/populations", h.handleListPopulations)
		r.Get("/populations/{id}", h.handleGetPopulation)
		r.Delete("/populations/{id}", h.handleDeletePopulation)
		r.Post("/exports", h.handleExportCreate)
		r.Get("/exports/{id}", h.handleExportGet)
	})
	return r
}

type generateRequest struct {
	WindowStart   string                    `json:"window_start"`
	WindowEnd     string                    `json:"window_end"`
	Count         int                       `json:"count"`
	Seed          *uint64                   `json:"seed,omitempty"`
	Probabilities *domain.ProbabilityConfig `json:"probabilities,omitempty"`
}

type exportRequest struct {
	PopulationID string   `json:"population_id"`
	CensusStart  string   `json:"census_start"`
	CensusEnd    string   `json:"census_end"`
	Formats      []string `json:"formats"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid population request payload")
		return
	}
	start, end, err := parseWindow(req.WindowStart, req.WindowEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Count < 0 {
		writeError(w, http.StatusBadRequest, "count must be non-negative")
		return
	}
	genReq := core.GenerateRequest{WindowStart: start, WindowEnd: end, Count: req.Count, Seed: req.Seed}
	if req.Probabilities != nil {
		probs, err := domain.NewProbabilities(*req.Probabilities)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		genReq.Probabilities = &probs
	}
	pop, err := h.Populations.Generate(r.Context(), genReq)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"population": pop.Summary()})
}

func (h *Handler) handleListPopulations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Populations.ListPopulations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"populations": list})
}

func (h *Handler) handleGetPopulation(w http.ResponseWriter, r *http.Request) {
	pop, err := h.Populations.GetPopulation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"population": pop})
}

func (h *Handler) handleDeletePopulation(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Populations.DeletePopulation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "population not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports not configured")
		return
	}
	var req exportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}
	start, end, err := parseWindow(req.CensusStart, req.CensusEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Populations.GetPopulation(r.Context(), req.PopulationID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	record, err := h.Exports.EnqueueExport(r.Context(), Input{
		PopulationID: req.PopulationID,
		Window:       domain.ReportingWindow{Start: start, End: end},
		Formats:      req.Formats,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports not configured")
		return
	}
	record, ok := h.Exports.GetExport(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start date must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end date must be YYYY-MM-DD")
	}
	if _, err := domain.NewReportingWindow(s, e); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPopulationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidWindow), errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
