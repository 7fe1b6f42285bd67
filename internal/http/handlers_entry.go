package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tally/internal/core"
)

// entryRequest is the wire shape for create and update. Amount decodes
// through core.Money, so both 200.50 and "200.50" arrive as exact cents.
type entryRequest struct {
	Type        string     `json:"type"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
}

// toEntry maps the request onto a domain entry. An omitted date leaves a
// zero timestamp: the ledger service defaults it to now on create and
// keeps the stored date on update.
func (req entryRequest) toEntry(ownerID int64) (core.Entry, []fieldError) {
	var occurredAt time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return core.Entry{}, []fieldError{{Field: "date", Message: "date must be RFC 3339"}}
		}
		occurredAt = parsed.UTC()
	}

	return core.Entry{
		OwnerID:    ownerID,
		Kind:       core.EntryKind(req.Type),
		Amount:     req.Amount,
		Category:   req.Category,
		OccurredAt: occurredAt,
		Note:       req.Description,
	}, nil
}

// decodeEntryRequest parses the body, turning a bad amount into a field
// error instead of an opaque decode failure.
func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			respondValidationErrors(w, []fieldError{{Field: "amount", Message: "amount must be a positive number"}})
		} else {
			respondError(w, http.StatusBadRequest, "invalid JSON payload")
		}
		return entryRequest{}, false
	}
	return req, true
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, errs := req.toEntry(ownerFrom(r.Context()))
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	created, err := s.ledger.CreateEntry(r.Context(), entry)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.ListEntries(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, errs := req.toEntry(ownerFrom(r.Context()))
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}
	entry.ID = id

	updated, err := s.ledger.UpdateEntry(r.Context(), entry)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.ledger.DeleteEntry(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// entryID parses the {id} path segment. A malformed id is treated the same
// as an id that does not exist, so the caller learns nothing about which
// ids are in use.
func entryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
