package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/maltedev/offer-resolver/internal/resolver"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RequestTimeout bounds a single resolution request. Batch requests get one
	// RequestTimeout per round of BatchWorkers resolutions.
	RequestTimeout time.Duration
	BatchWorkers   int
}

// BatchTimeout is the timeout of a full batch: enough rounds of workers to cover maxBatchSize.
func (o RouterOptions) BatchTimeout() time.Duration {
	if o.RequestTimeout <= 0 {
		return 0
	}
	workers := o.BatchWorkers
	if workers <= 0 {
		workers = resolver.DefaultBatchWorkers
	}
	rounds := (maxBatchSize + workers - 1) / workers
	return time.Duration(rounds) * o.RequestTimeout
}

func withTimeout(r chi.Router, d time.Duration) chi.Router {
	if d <= 0 {
		return r
	}
	return r.With(middleware.Timeout(d))
}

func NewRouter(res Resolver, opts RouterOptions, logger *slog.Logger) http.Handler {
	handlers := NewHandlers(res, opts.BatchWorkers, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		withTimeout(r, opts.RequestTimeout).Post("/resolve", handlers.Resolve)
		withTimeout(r, opts.BatchTimeout()).Post("/resolve/batch", handlers.ResolveBatch)
	})

	return r
}
