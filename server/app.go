package main

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pathce/internal/catalog"
)

// App holds the server's dependencies: a read-only catalog and a cache
// of recent estimate results. Each request builds its own
// estimate.Estimator over store, since Estimator's chained setters
// mutate shared state and a single instance can't be reused across
// concurrent requests. mu serializes all catalog access, matching the
// teacher server's single-connection SQLite database.
type App struct {
	store *catalog.Store
	cache *estimateCache
	mu    sync.Mutex
}

// NewApp creates an App over an already-imported catalog.
func NewApp(store *catalog.Store, cache *estimateCache) *App {
	return &App{store: store, cache: cache}
}

// Handler returns the HTTP handler: CORS-enabled JSON API over the
// catalog, no static file serving (this server is diagnostics-only,
// unlike the teacher's SPA-backing dashboard server).
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/paths", a.handleCatalogPaths)
		r.Get("/stars", a.handleCatalogStars)
		r.Get("/edges/{label}", a.handleCatalogEdgeCount)
	})
	r.Post("/estimate", a.handleEstimate)

	return r
}

// corsMiddleware sets CORS headers so a browser-based client on another
// port can call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
