// Package http exposes the JSON API: credential endpoints, the bearer
// authorization gate, owner-scoped entry CRUD, and period summaries.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

// Server wraps http.Server with the wired routes and the rate limiter
// lifecycle.
type Server struct {
	http.Server

	auth   *services.AuthService
	ledger *services.LedgerService
	logger *applog.Logger

	rateLimiter  *rateLimiter
	tracer       *trace.Middleware
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server bound to addr.
func NewServer(cfg *config.Config, authSvc *services.AuthService, ledgerSvc *services.LedgerService, logger *applog.Logger) *Server {
	s := &Server{
		auth:        authSvc,
		ledger:      ledgerSvc,
		logger:      logger.WithComponent("http"),
		rateLimiter: newRateLimiter(),
		startedAt:   time.Now(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateEntry))
	mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListEntries))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireAuth(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteEntry))
	mux.HandleFunc("GET /api/transactions/summary/monthly", s.requireAuth(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/transactions/summary/yearly", s.requireAuth(s.handleYearlySummary))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.tracer = trace.NewMiddleware(extractClientIP)

	var handler http.Handler = mux
	handler = s.rateLimitMiddleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = corsMiddleware(cfg.CORSOrigins, handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// rateLimitMiddleware applies the per-IP limiter to everything except
// the health endpoint.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP)
				respondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(s.startedAt).Truncate(time.Second).String(),
		"requests": s.tracer.TotalRequests(),
	})
}
