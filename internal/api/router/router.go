// Package router assembles the HTTP surface: webhook routes, the chat API,
// health and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bluedeem/clinic-bot/internal/http/handlers"
	httpmiddleware "github.com/bluedeem/clinic-bot/internal/http/middleware"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Webhooks           *handlers.WebhookHandler
	Chat               *handlers.ChatHandler
	Health             *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhooks != nil {
		r.Route("/webhook", func(wh chi.Router) {
			wh.Get("/whatsapp", cfg.Webhooks.VerifyWhatsApp)
			wh.Post("/{platform}", cfg.Webhooks.HandleMessage)
		})
	}

	if cfg.Chat != nil {
		r.Post("/api/chat", cfg.Chat.Handle)
	}

	return r
}
