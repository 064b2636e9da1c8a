// Package router wires the HTTP surface: five endpoints over
// internal/service.AppService plus health and metrics, behind the
// standard ambient middleware stack.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/connexus-ai/secondbrain/internal/handler"
	"github.com/connexus-ai/secondbrain/internal/middleware"
	"github.com/connexus-ai/secondbrain/internal/service"
)

// Config collects everything the router needs beyond the AppService itself.
type Config struct {
	App            *service.AppService
	DB             handler.DBPinger
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	Version        string
	CORSOrigin     string
	DefaultTopK    int
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// New builds the application router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigin))
	if cfg.Metrics != nil {
		r.Use(middleware.Monitoring(cfg.Metrics))
	}

	r.Get("/health", handler.Health(cfg.DB, cfg.Version))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Post("/documents/upload", count(cfg.Metrics, cfg.Metrics.IncrementIngest, handler.UploadDocument(cfg.App, cfg.MaxUploadBytes)))
		r.Get("/documents", handler.ListDocuments(cfg.App))
		r.Post("/search", count(cfg.Metrics, cfg.Metrics.IncrementSearch, handler.Search(cfg.App, cfg.DefaultTopK)))
		r.Post("/eval/run", count(cfg.Metrics, cfg.Metrics.IncrementEval, handler.RunEval(cfg.App, cfg.DefaultTopK)))
	})

	// Chat is excluded from the blanket timeout: a slow LLM generator
	// shouldn't be cut off mid-answer the way a stuck query should be.
	r.Post("/chat", count(cfg.Metrics, cfg.Metrics.IncrementChat, handler.Chat(cfg.App, cfg.DefaultTopK)))

	return r
}

// count wraps a handler with a domain operation counter, a no-op when
// metrics aren't wired (e.g. in router tests).
func count(m *middleware.Metrics, inc func(), next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m != nil {
			inc()
		}
		next(w, r)
	}
}
