package handlers

import (
	"net/http"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/config"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/initialization"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/metrics"
	"github.com/agentboard/api/internal/middleware"
	"github.com/agentboard/api/internal/validation"
	"github.com/gorilla/mux"
)

// Deps carries everything the HTTP surface needs
type Deps struct {
	Store        *db.Store
	Issuer       *auth.TokenIssuer
	Hasher       *auth.Hasher
	Validator    *validation.Validator
	Logger       *logging.Logger
	RateLimiter  *middleware.RateLimiter // nil disables rate limiting
	MaxBodyBytes int64
	CORS         config.CORSConfig
}

// NewHandler returns the full HTTP handler: CORS around the router so that
// preflight requests are answered before route matching.
func NewHandler(deps Deps) http.Handler {
	return middleware.CORSMiddleware(deps.CORS)(NewRouter(deps))
}

// NewRouter registers every route
func NewRouter(deps Deps) *mux.Router {
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.RequestSizeMiddleware(maxBody))

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	/* Health check and metrics (no auth) */
	router.HandleFunc("/health", healthHandler(initialization.NewHealthChecker(deps.Store, deps.Logger))).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Subrouters do not inherit these handlers from their parent.
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.NotFoundHandler = http.HandlerFunc(notFound)
	v1.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	if deps.RateLimiter != nil {
		v1.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	}

	/* Auth routes */
	authHandlers := NewAuthHandlers(deps.Store, deps.Issuer, deps.Hasher, deps.Validator, deps.Logger)
	v1.HandleFunc("/auth/register", authHandlers.Register).Methods("POST")
	v1.HandleFunc("/auth/login", authHandlers.Login).Methods("POST")

	/* API routes (with auth); registered on v1 so method mismatches stay visible to it */
	requireAuth := auth.JWTMiddleware(deps.Issuer, deps.Store, func(w http.ResponseWriter, r *http.Request, err error) {
		WriteAPIError(w, r, deps.Logger, err)
	})
	api := &authedRoutes{router: v1, wrap: requireAuth}

	api.HandleFunc("/auth/me", authHandlers.Me).Methods("GET")

	agentHandlers := NewAgentHandlers(deps.Store, deps.Validator, deps.Logger)
	api.HandleFunc("/agents", agentHandlers.ListAgents).Methods("GET")
	api.HandleFunc("/agents", agentHandlers.CreateAgent).Methods("POST")
	api.HandleFunc("/agents/{id}", agentHandlers.GetAgent).Methods("GET")
	api.HandleFunc("/agents/{id}", agentHandlers.UpdateAgent).Methods("PUT", "PATCH")
	api.HandleFunc("/agents/{id}", agentHandlers.DeleteAgent).Methods("DELETE")

	executionHandlers := NewExecutionHandlers(deps.Store, deps.Validator, deps.Logger)
	api.HandleFunc("/executions", executionHandlers.CreateExecution).Methods("POST")
	api.HandleFunc("/executions/{agent_id}", executionHandlers.ListExecutions).Methods("GET")
	api.HandleFunc("/logs/{execution_id}", executionHandlers.ListLogs).Methods("GET")

	flowchartHandlers := NewFlowchartHandlers(deps.Store, deps.Validator, deps.Logger)
	api.HandleFunc("/flowchart/nodes", flowchartHandlers.CreateNodes).Methods("POST")
	api.HandleFunc("/flowchart/edges", flowchartHandlers.CreateEdges).Methods("POST")
	api.HandleFunc("/flowchart/{agent_id}", flowchartHandlers.GetFlowchart).Methods("GET")

	return router
}

// authedRoutes registers handlers behind the JWT middleware
type authedRoutes struct {
	router *mux.Router
	wrap   func(http.Handler) http.Handler
}

func (a *authedRoutes) HandleFunc(path string, h http.HandlerFunc) *mux.Route {
	return a.router.Handle(path, a.wrap(h))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, CodeNotFound, "route not found", nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
}

func healthHandler(checker *initialization.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.CheckAll(r.Context())
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		WriteSuccess(w, status, code)
	}
}
