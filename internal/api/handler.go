package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/pkg/logging"
)

// LeadService is the subset of lead.Service served over HTTP
type LeadService interface {
	ScoreByID(ctx context.Context, id domain.LeadID, identifier string) (lead.ScoreResult, error)
	GetScore(ctx context.Context, id domain.LeadID) (lead.CurrentScore, error)
	BulkScoreByIDs(ctx context.Context, ids []domain.LeadID) ([]lead.ScoreResult, error)
	ScoreAll(ctx context.Context, opts lead.ScoreAllOptions) (lead.ScoreAllResult, error)
	RegistryData(ctx context.Context, id domain.LeadID) (lead.RegistryData, error)
	AttachRegistryID(ctx context.Context, id domain.LeadID, identifier string) (lead.RegistryUpdate, error)
	PopulateByID(ctx context.Context, id domain.LeadID, identifier string) (domain.Lead, error)
	CreateFromRegistry(ctx context.Context, req lead.CreateRequest) (*domain.Lead, error)
	Lookup(ctx context.Context, identifier string) (domain.CompanyRecord, error)
	Search(ctx context.Context, name string, limit int) ([]domain.CompanyRecord, error)
	Criteria() lead.ICPConfig
	Stats(ctx context.Context) (domain.ScoreStats, error)
}

var _ LeadService = (*lead.Service)(nil)

// Handler serves the lead scoring REST API
type Handler struct {
	svc LeadService
	log *logging.Logger
}

func NewHandler(svc LeadService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{svc: svc, log: logger.Named("api")}
}

// Routes returns a chi.Router with every endpoint mounted relative to its root
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/icp", h.icpConfig)

	r.Route("/cvr", func(r chi.Router) {
		r.Post("/lookup", h.lookup)
		r.Get("/search", h.search)
	})

	r.Route("/leads", func(r chi.Router) {
		r.Post("/cvr", h.createFromRegistry)

		r.Get("/score/stats", h.stats)
		r.Post("/score/bulk", h.bulkScore)
		r.Post("/score/all", h.scoreAll)

		r.Route("/{leadID}", func(r chi.Router) {
			r.Get("/score", h.getScore)
			r.Post("/score", h.score)
			r.Get("/cvr", h.registryData)
			r.Post("/cvr", h.attachRegistryID)
			r.Post("/cvr/populate", h.populate)
		})
	})
	return r
}

type identifierRequest struct {
	Identifier string `json:"cvr_number"`
}

type bulkScoreRequest struct {
	LeadIDs []string `json:"lead_ids"`
}

type bulkScoreResponse struct {
	Results     []lead.ScoreResult `json:"results"`
	TotalScored int                `json:"total_scored"`
}

type scoreAllRequest struct {
	Force     bool `json:"force"`
	BatchSize int  `json:"batch_size"`
	DryRun    bool `json:"dry_run"`
}

type populateResponse struct {
	Message string      `json:"message"`
	Lead    domain.Lead `json:"lead"`
}

type searchResponse struct {
	Results []domain.CompanyRecord `json:"results"`
	Count   int                    `json:"count"`
}

func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	var req identifierRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.ScoreByID(r.Context(), id, req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getScore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetScore(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) bulkScore(w http.ResponseWriter, r *http.Request) {
	var req bulkScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	ids := make([]domain.LeadID, 0, len(req.LeadIDs))
	for _, raw := range req.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: invalid lead id %q", lead.ErrInvalidInput, raw))
			return
		}
		ids = append(ids, id)
	}

	results, err := h.svc.BulkScoreByIDs(r.Context(), ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bulkScoreResponse{Results: results, TotalScored: len(results)})
}

func (h *Handler) scoreAll(w http.ResponseWriter, r *http.Request) {
	var req scoreAllRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.BatchSize < 0 {
		h.writeError(w, r, fmt.Errorf("%w: batch_size must be positive", lead.ErrInvalidInput))
		return
	}
	res, err := h.svc.ScoreAll(r.Context(), lead.ScoreAllOptions{
		Force:     req.Force,
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) registryData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RegistryData(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) attachRegistryID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	var req identifierRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.AttachRegistryID(r.Context(), id, req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) populate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.leadID(w, r)
	if !ok {
		return
	}
	var req identifierRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.svc.PopulateByID(r.Context(), id, req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, populateResponse{Message: "Lead populated with registry data", Lead: l})
}

func (h *Handler) createFromRegistry(w http.ResponseWriter, r *http.Request) {
	var req lead.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.svc.CreateFromRegistry(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if !h.decode(w, r, &req) {
		return
	}
	company, err := h.svc.Lookup(r.Context(), req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", lead.ErrInvalidInput))
			return
		}
		limit = n
	}
	results, err := h.svc.Search(r.Context(), name, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.CompanyRecord{}
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

func (h *Handler) icpConfig(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Criteria())
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) leadID(w http.ResponseWriter, r *http.Request) (domain.LeadID, bool) {
	raw := chi.URLParam(r, "leadID")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid lead id %q", lead.ErrInvalidInput, raw))
		return uuid.Nil, false
	}
	return id, true
}

// decode reads an optional JSON body; an empty body leaves dst untouched
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.writeError(w, r, fmt.Errorf("%w: malformed request body: %v", lead.ErrInvalidInput, err))
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("failed to encode response", "err", err)
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
