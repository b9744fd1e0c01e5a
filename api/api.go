// Package api exposes the tracker over JSON/HTTP. Callers authenticate with
// the session token issued at login, sent as a bearer token or cookie.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/middleware"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type Server struct {
	svc          *tracker.Service
	users        user.Repository
	sessions     session.Repository
	events       eventlogger.Publisher
	log          *slog.Logger
	schemas      map[string]*jsonschema.Schema
	corsOrigins  []string
	secureCookie bool
	staleAfter   time.Duration
	health       func(context.Context) error
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

func WithEvents(p eventlogger.Publisher) Option {
	return func(s *Server) {
		s.events = p
	}
}

// WithCORSOrigins allows browser calls from origins; "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

// WithStaleAfter sets how old a pending or deleting ledger entry must be
// before an on-demand reconcile touches it.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Server) {
		s.staleAfter = d
	}
}

// WithHealthCheck makes /health report the result of check.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

func New(svc *tracker.Service, users user.Repository, sessions session.Repository, opts ...Option) (*Server, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Server{
		svc:        svc,
		users:      users,
		sessions:   sessions,
		events:     eventlogger.Discard,
		log:        slog.Default(),
		schemas:    schemas,
		staleAfter: tracker.DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(s.cors)
	router.Use(middleware.AuthMiddleware(s.sessions, s.log))

	router.Get("/health", s.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Get("/participants", s.handleListParticipants)
			r.Put("/participants/{id}/role", s.handleUpdateRole)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/export.xlsx", s.handleExport)
			r.Get("/expenses/{id}", s.handleGetExpense)
			r.Put("/expenses/{id}", s.handleEditExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Get("/expenses/{id}/permissions", s.handlePermissions)
			r.Get("/expenses/{id}/shares", s.handleListShares)
			r.Post("/expenses/{id}/shares", s.handleShare)
			r.Delete("/shares/{id}", s.handleRemoveShare)

			r.Get("/stats", s.handleStats)

			r.Get("/shared-expenses", s.handleSharedExpenses)
			r.Post("/shared-expenses", s.handleCreateSplit)
			r.Post("/shared-expenses/{id}/settle", s.handleSettle)
			r.Get("/settlements", s.handleSettlements)

			r.Post("/admin/reconcile", s.handleReconcile)
		})
	})

	return router
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && len(s.corsOrigins) > 0 {
			if slices.Contains(s.corsOrigins, "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if slices.Contains(s.corsOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
