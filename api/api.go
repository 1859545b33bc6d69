// Package api exposes the crawler over HTTP: structure analysis and
// locator synthesis, crawl session lifecycle, and stored results.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/junqing258/crawler-assistant/analyze"
	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/shield"
	"github.com/junqing258/crawler-assistant/store"
)

// Service bundles the collaborators behind the HTTP surface.
type Service struct {
	store    *store.Store
	registry *crawl.Registry
	analyzer analyze.Analyzer
	loader   crawl.PageLoader
	crawlCfg crawl.Config
	logger   *slog.Logger
	limiter  *shield.RateLimiter

	// bg is the lifetime context for detached crawl goroutines; closing
	// it cancels every running session at its next page boundary.
	bg context.Context
}

// Option configures a Service.
type Option func(*Service)

// WithLoader attaches the browser page loader. Without one, analyze
// requests must carry inline HTML and crawls are rejected.
func WithLoader(l crawl.PageLoader) Option {
	return func(s *Service) { s.loader = l }
}

// WithAnalyzer overrides the default heuristic analyzer.
func WithAnalyzer(a analyze.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithCrawlConfig sets the per-session crawl bounds.
func WithCrawlConfig(cfg crawl.Config) Option {
	return func(s *Service) { s.crawlCfg = cfg }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithBaseContext sets the lifetime context for crawl goroutines.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Service) { s.bg = ctx }
}

// NewService creates the HTTP service over a store.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		registry: crawl.NewRegistry(),
		logger:   slog.Default(),
		bg:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analyze.NewHeuristic(s.logger)
	}
	if err := shield.Init(st.DB()); err != nil {
		s.logger.Warn("rate limit schema init failed", "error", err)
	}
	s.limiter = shield.NewRateLimiter(st.DB(), "/health")
	s.limiter.StartReloader(s.bg.Done())
	return s
}

// Router builds the chi router with all endpoints mounted.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxJSONBody(1 << 20))
	r.Use(s.limiter.Middleware)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/crawl", s.handleCrawlStart)
		r.Get("/crawl/{id}", s.handleCrawlStatus)
		r.Post("/crawl/{id}/cancel", s.handleCrawlCancel)
		r.Get("/crawl/{id}/records", s.handleCrawlRecords)
		r.Get("/sessions", s.handleSessions)
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
