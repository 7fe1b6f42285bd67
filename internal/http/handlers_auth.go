package http

import (
	"net/http"
	"net/mail"
	"strings"

	"tally/internal/core"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	var errs []fieldError
	if len(req.Name) < 2 {
		errs = append(errs, fieldError{Field: "name", Message: "name must be at least 2 characters"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{Field: "email", Message: "email is not valid"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, fieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	req.Email = normalizeEmail(req.Email)

	var errs []fieldError
	if req.Email == "" {
		errs = append(errs, fieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, fieldError{Field: "password", Message: "password is required"})
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	user, token, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Profile(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]core.User{"user": user})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
