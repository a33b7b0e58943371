package providers

import (
	"context"
	"net/http"
	"slices"

	"github.com/samber/do/v2"

	"github.com/todosync/todosync-server/internal/api"
	"github.com/todosync/todosync-server/internal/auth"
	"github.com/todosync/todosync-server/internal/config"
	"github.com/todosync/todosync-server/internal/logger"
	"github.com/todosync/todosync-server/internal/ratelimit"
	"github.com/todosync/todosync-server/internal/service"
)

// RateLimiterHandle wraps the per-IP limiter. Limiter is nil when rate
// limiting is disabled.
type RateLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the /api rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled")
		return &RateLimiterHandle{}, nil
	}

	burst := cfg.RateLimit.Burst
	if burst == 0 {
		burst = cfg.RateLimit.Requests
	}
	log.Info("Rate limiting enabled",
		"requests", cfg.RateLimit.Requests,
		"window", cfg.RateLimit.Window,
		"burst", burst,
	)
	return &RateLimiterHandle{
		Limiter: ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window, burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	serverCfg config.ServerConfig
	logger    *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(h.serverCfg.ShutdownTimeout))
	defer cancel()
	h.logger.Info("HTTP server shutting down", "addr", h.Addr)
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the HTTP server. It is started by the caller.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)

	services := &api.Services{
		Todos:      do.MustInvoke[*service.TodoService](i),
		Categories: do.MustInvoke[*service.CategoryService](i),
		Stats:      do.MustInvoke[*service.StatsService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
	}

	// A nil *search.Index must reach the server as a nil interface.
	var searchIndex api.DocumentCounter
	if indexHandle.Index != nil {
		searchIndex = indexHandle.Index
	}

	handler := api.NewServer(
		services,
		tokenService,
		storeHandle.Store,
		searchIndex,
		sseHandle.Manager,
		api.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimiter: limiterHandle.Limiter,
		},
		log.Logger,
	)

	if cfg.IsProduction() && slices.Contains(cfg.Server.CORSOrigins, "*") {
		log.Warn("CORS allows every origin in production", "origins", cfg.Server.CORSOrigins)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &HTTPServerHandle{Server: srv, serverCfg: cfg.Server, logger: log}, nil
}
