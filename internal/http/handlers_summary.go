package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, ok := queryInt(r, "month")
	if !ok {
		respondError(w, http.StatusBadRequest, "month must be an integer")
		return
	}

	summary, err := s.ledger.MonthlySummary(r.Context(), ownerFrom(r.Context()), year, month)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	summary, err := s.ledger.YearlySummary(r.Context(), ownerFrom(r.Context()), year)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
