package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

// fieldError is one user-correctable validation problem.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respondJSON: encode payload failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondValidationErrors(w http.ResponseWriter, errs []fieldError) {
	respondJSON(w, http.StatusBadRequest, map[string][]fieldError{"errors": errs})
}

// decodeJSON parses the request body into dst, rejecting unknown noise
// cheaply via the size cap.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}

// respondServiceError maps error kinds from the service and storage
// layers to status codes and minimal bodies. Unexpected failures are
// logged server-side and surface as an opaque 500.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrEmailTaken):
		respondError(w, http.StatusConflict, services.ErrEmailTaken.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidMonth):
		respondError(w, http.StatusBadRequest, core.ErrInvalidMonth.Error())
	case isEntryValidationError(err):
		respondValidationErrors(w, []fieldError{{Field: "body", Message: err.Error()}})
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isEntryValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrEmptyCategory,
		core.ErrInvalidDate,
		core.ErrCategoryTooLong,
		core.ErrNoteTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
