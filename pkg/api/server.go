package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/guardpost/guardpost/pkg/guard"
	"github.com/guardpost/guardpost/pkg/httputil"
	"github.com/guardpost/guardpost/pkg/invites"
	"github.com/guardpost/guardpost/pkg/observability"
	"github.com/guardpost/guardpost/pkg/users"
)

// Server represents the admin API server
type Server struct {
	router  *mux.Router
	users   *users.Service
	invites *invites.Service
	guard   *guard.Guard
	logger  *observability.Logger
}

// NewServer creates the API server and configures all routes. Metrics may be
// nil, disabling the /metrics endpoint and per-request metrics.
func NewServer(usersSvc *users.Service, invitesSvc *invites.Service, g *guard.Guard,
	logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		users:   usersSvc,
		invites: invitesSvc,
		guard:   g,
		logger:  logger,
	}
	s.setupRoutes(metrics)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(metrics *observability.Metrics) {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	if metrics != nil {
		s.router.Use(metrics.HTTPMiddleware)
		s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	// Public routes
	s.router.HandleFunc("/health", s.health).Methods("GET")
	s.router.HandleFunc("/api/invite/accept", s.acceptInvite).Methods("POST")

	// Admin routes, behind the forwarded-groups guard
	admin := s.router.PathPrefix("/api").Subrouter()
	admin.Use(s.guard.Middleware(s.logger))
	admin.HandleFunc("/users", s.listUsers).Methods("GET")
	admin.HandleFunc("/users", s.createUser).Methods("POST")
	admin.HandleFunc("/users/{username}", s.updateUser).Methods("PUT")
	admin.HandleFunc("/users/{username}/password", s.changePassword).Methods("POST")
	admin.HandleFunc("/users/{username}", s.deleteUser).Methods("DELETE")
	admin.HandleFunc("/invite", s.createInvite).Methods("POST")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w)
}
