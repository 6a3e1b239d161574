package routes

import (
	"net/http"

	"github.com/maitricare/emergency-locator/internal/api/handlers"
	"github.com/maitricare/emergency-locator/internal/api/middleware"
	"github.com/maitricare/emergency-locator/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	locatorHandler *handlers.LocatorHandler
	sseHandler     *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	locatorHandler *handlers.LocatorHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		locatorHandler: locatorHandler,
		sseHandler:     sseHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Locator endpoints
	r.mux.HandleFunc("GET /api/locator", r.locatorHandler.GetSnapshot)
	r.mux.HandleFunc("POST /api/locator/refresh", r.locatorHandler.Refresh)
	r.mux.HandleFunc("GET /api/locator/directions/{id}", r.locatorHandler.GetDirectionsLink)

	// Run event stream
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/locator/stream", r.sseHandler.StreamRunEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
