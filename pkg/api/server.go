// Package api exposes the team authorization and invitation-lifecycle engine
// over HTTP.
//
// All routes require bearer-token authentication except the public invitation
// surface: GET /invitations/{token} and POST /invitations/{token}/decline,
// which an invitee reaches from an email link before having an account.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/auth"
	"github.com/platinummonkey/brandhub/pkg/businesses"
	"github.com/platinummonkey/brandhub/pkg/httputil"
	"github.com/platinummonkey/brandhub/pkg/middleware"
	"github.com/platinummonkey/brandhub/pkg/notify"
	"github.com/platinummonkey/brandhub/pkg/observability"
)

// Server is the HTTP API server
type Server struct {
	router   *mux.Router
	service  businesses.Service
	tokens   *auth.TokenManager
	users    *auth.UserManager
	logger   *observability.Logger
	metrics  *observability.Metrics
	notifier notify.Notifier
	recorder audit.Recorder
}

// Options carries optional server dependencies. Nil fields get no-op defaults.
type Options struct {
	Metrics  *observability.Metrics
	Notifier notify.Notifier
	Recorder audit.Recorder
}

// NewServer creates a new API server
func NewServer(service businesses.Service, tokens *auth.TokenManager, users *auth.UserManager, logger *observability.Logger, opts Options) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router:   mux.NewRouter(),
		service:  service,
		tokens:   tokens,
		users:    users,
		logger:   logger,
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
	}

	if s.recorder == nil {
		s.recorder = audit.NopRecorder{}
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(logger)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Auth runs in optional mode so the public invitation surface works
	// without credentials; every other handler enforces identity via
	// requireAuth.
	authMW := middleware.NewAuthMiddleware(s.tokens, true)

	chain := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware,
		httputil.LoggingMiddleware,
	}
	if s.metrics != nil {
		chain = append(chain, s.metrics.HTTPMiddleware)
	}
	chain = append(chain, authMW.Handler)
	s.router.Use(chain...)

	// Business routes
	s.router.HandleFunc("/businesses", s.createBusiness).Methods("POST")
	s.router.HandleFunc("/businesses", s.listBusinesses).Methods("GET")
	s.router.HandleFunc("/businesses/{id}", s.getBusiness).Methods("GET")
	s.router.HandleFunc("/businesses/{id}", s.updateBusiness).Methods("PUT")
	s.router.HandleFunc("/businesses/{id}", s.deleteBusiness).Methods("DELETE")

	// Permission resolution
	s.router.HandleFunc("/businesses/{id}/permissions", s.getPermissions).Methods("GET")

	// Members
	s.router.HandleFunc("/businesses/{id}/members", s.listMembers).Methods("GET")
	s.router.HandleFunc("/businesses/{id}/members/{user_id}", s.updateMemberRole).Methods("PUT")
	s.router.HandleFunc("/businesses/{id}/members/{user_id}", s.removeMember).Methods("DELETE")

	// Invitations (business-scoped, managed)
	s.router.HandleFunc("/businesses/{id}/invitations", s.createInvitation).Methods("POST")
	s.router.HandleFunc("/businesses/{id}/invitations", s.listInvitations).Methods("GET")
	s.router.HandleFunc("/businesses/{id}/invitations/{invitation_id}", s.revokeInvitation).Methods("DELETE")

	// Invitations (token-scoped)
	s.router.HandleFunc("/invitations/{token}", s.getInvitation).Methods("GET")
	s.router.HandleFunc("/invitations/{token}/accept", s.acceptInvitation).Methods("POST")
	s.router.HandleFunc("/invitations/{token}/decline", s.declineInvitation).Methods("POST")

	// Access requests
	s.router.HandleFunc("/businesses/{id}/access-requests", s.createAccessRequest).Methods("POST")
	s.router.HandleFunc("/businesses/{id}/access-requests", s.listAccessRequests).Methods("GET")
	s.router.HandleFunc("/businesses/{id}/access-requests/{request_id}/review", s.reviewAccessRequest).Methods("POST")

	// Audit trail
	s.router.HandleFunc("/businesses/{id}/audit", s.listAuditEvents).Methods("GET")

	// Users and tokens
	s.router.HandleFunc("/auth/users", s.createUser).Methods("POST")
	s.router.HandleFunc("/auth/users/{id}", s.getUser).Methods("GET")
	s.router.HandleFunc("/auth/tokens", s.createToken).Methods("POST")
	s.router.HandleFunc("/auth/tokens", s.listTokens).Methods("GET")
	s.router.HandleFunc("/auth/tokens/{id}", s.revokeToken).Methods("DELETE")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requireAuth extracts the caller identity or writes a 401.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) *auth.AuthContext {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil
	}
	return authCtx
}

// optionalAuth returns the caller identity when present, nil otherwise.
func (s *Server) optionalAuth(r *http.Request) *auth.AuthContext {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		return nil
	}
	return authCtx
}
