package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sucheta/jobport/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the collection API.
//
// Routes:
//
//	GET  /{collection}        → Handler.List (equality query filters)
//	POST /{collection}        → Handler.Create (201 + assigned id)
//	GET  /{collection}/{id}   → Handler.GetByID
//	PUT  /{collection}/{id}   → Handler.Replace
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON request bodies
//  2. WithRequestLogging(logger)           — logs each request
//  3. limiter.Middleware                   — per-client rate limiting
func NewRouter(h *Handler, limiter *middleware.RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Throttle abusive clients
	r.Use(limiter.Middleware)

	r.Route("/{collection}", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Replace)
	})

	return r
}
