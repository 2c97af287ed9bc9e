package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/ytblog/internal/api/middleware"
	"github.com/kiranshivaraju/ytblog/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// RateLimit may be nil when no Redis is configured.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	GenerateHandler  http.HandlerFunc
	SessionHandler   http.HandlerFunc
	ResetHandler     http.HandlerFunc
	SendEmailHandler http.HandlerFunc
	DocumentHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		r.Get("/session", orNotImplemented(deps.SessionHandler))
		r.Post("/session/reset", orNotImplemented(deps.ResetHandler))
		r.Get("/document", orNotImplemented(deps.DocumentHandler))

		// Calls that reach the backend are rate limited per client
		r.With(deps.RateLimit.Limit("generate")).Post("/generate", orNotImplemented(deps.GenerateHandler))
		r.With(deps.RateLimit.Limit("send-email")).Post("/send-email", orNotImplemented(deps.SendEmailHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
