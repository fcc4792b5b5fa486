package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/mediagrab/internal/api/handler"
	mw "github.com/iconidentify/mediagrab/internal/api/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Media  *handler.MediaHandler
	Health *handler.HealthHandler
	Events *handler.EventHandler
	UI     *handler.UIHandler
}

// RouterConfig holds router-level settings.
type RouterConfig struct {
	APIKey         string
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h Handlers, cfg RouterConfig, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.CORS)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/", h.UI.Index)

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(cfg.APIKey))

		r.Post("/info", h.Media.Info)
		r.Post("/download", h.Media.Download)

		r.Get("/capabilities", h.Health.Capabilities)
		r.Get("/stats", h.Health.Stats)
		if h.Events != nil {
			r.Get("/events", h.Events.List)
		}
	})

	return r
}
