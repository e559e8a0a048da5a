package api

import (
	"errors"
	"net/http"

	"github.com/honeycarbs/leadscore/internal/domain/lead"
	"github.com/honeycarbs/leadscore/internal/domain/registry"
	"github.com/honeycarbs/leadscore/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, lead.ErrInvalidInput), errors.Is(err, registry.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, lead.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, lead.ErrDuplicate), errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, registry.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		h.log.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
