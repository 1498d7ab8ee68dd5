// Package server exposes the quote service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/metrics"
	"github.com/ligun0805/swap-quote/internal/quote"
	"github.com/ligun0805/swap-quote/internal/router"
)

// ChainLister is satisfied by *chains.Registry.
type ChainLister interface {
	Chains() []chains.Chain
}

// Config holds server configuration
type Config struct {
	Port           int
	APIKey         string
	RequestTimeout time.Duration
	CORSOrigins    []string
	Log            zerolog.Logger

	Quotes  *quote.Service
	Chains  ChainLister
	Metrics *metrics.Metrics

	// Uniswap serves /quote and /quotes. PancakeSwap serves /quote-pancakeswap
	// and may be nil, in which case the route is not mounted.
	Uniswap     router.Engine
	PancakeSwap router.Engine
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", apiKeyHeader},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.cfg.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.apiKeyMiddleware)
		r.Get("/chains", s.handleChains)
		r.Post("/quote", s.handleQuote(quote.Target{Engine: s.cfg.Uniswap}))
		r.Post("/quotes", s.handleQuoteBatch(quote.Target{Engine: s.cfg.Uniswap}))
		if s.cfg.PancakeSwap != nil {
			r.Post("/quote-pancakeswap", s.handleQuote(quote.Target{Engine: s.cfg.PancakeSwap, ChainID: chains.BSC}))
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
