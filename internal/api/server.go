// Package api provides the HTTP API server and handlers for todosync.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/todosync/todosync-server/internal/auth"
	"github.com/todosync/todosync-server/internal/ratelimit"
	"github.com/todosync/todosync-server/internal/sse"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// RateLimiter throttles /api by client IP. Nil disables throttling.
	RateLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	tokens      *auth.TokenService
	db          Pinger
	searchIndex DocumentCounter
	sseManager  *sse.Manager
	sseHandler  *sse.Handler
	router      *chi.Mux
	api         huma.API
	limiter     *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	services *Services,
	tokens *auth.TokenService,
	db Pinger,
	searchIndex DocumentCounter,
	sseManager *sse.Manager,
	opts Options,
	logger *slog.Logger,
) *Server {
	s := &Server{
		services:    services,
		tokens:      tokens,
		db:          db,
		searchIndex: searchIndex,
		sseManager:  sseManager,
		router:      chi.NewRouter(),
		limiter:     opts.RateLimiter,
		logger:      logger,
	}
	if sseManager != nil && tokens != nil {
		s.sseHandler = sse.NewHandler(sseManager, tokens, logger)
	}

	s.setupMiddleware(opts)
	s.api = newHumaAPI(s.router)
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// newHumaAPI builds the huma API on router with the envelope and error
// mapping installed.
func newHumaAPI(router chi.Router) huma.API {
	humaConfig := huma.DefaultConfig("todosync API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()
	return api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	if s.tokens != nil {
		s.router.Use(authMiddleware(s.tokens))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerTodoRoutes()
	s.registerCategoryRoutes()

	// The event stream writes its own frames and stays outside huma.
	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
}
