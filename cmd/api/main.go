package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bluedeem/clinic-bot/internal/agent"
	"github.com/bluedeem/clinic-bot/internal/api/router"
	"github.com/bluedeem/clinic-bot/internal/booking"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	appconfig "github.com/bluedeem/clinic-bot/internal/config"
	"github.com/bluedeem/clinic-bot/internal/conversation"
	"github.com/bluedeem/clinic-bot/internal/dateparse"
	"github.com/bluedeem/clinic-bot/internal/dedupe"
	"github.com/bluedeem/clinic-bot/internal/http/handlers"
	"github.com/bluedeem/clinic-bot/internal/http/middleware"
	"github.com/bluedeem/clinic-bot/internal/intent"
	"github.com/bluedeem/clinic-bot/internal/llm"
	"github.com/bluedeem/clinic-bot/internal/observability/metrics"
	"github.com/bluedeem/clinic-bot/internal/platforms"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-bot API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, caches disabled until it recovers", "error", err)
	}

	// Durable stores: Postgres when configured, in-memory otherwise.
	var (
		bookingStore booking.Store
		dedupeStore  dedupe.Store
		turnStore    conversation.TurnStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		bookingStore = booking.NewPostgresStore(pool)
		dedupeStore = dedupe.NewPostgresStore(pool)
		turnStore = conversation.NewPostgresTurnStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		bookingStore = booking.NewInMemoryStore()
		dedupeStore = dedupe.NewInMemoryStore()
		turnStore = conversation.NewInMemoryTurnStore()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	parser := dateparse.New(cfg.Timezone)

	source, err := clinicdata.NewSheetsSource(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
	if err != nil {
		logger.Error("failed to build sheets source", "error", err)
		os.Exit(1)
	}
	gateway := clinicdata.NewGateway(source, redisClient, clinicdata.SheetNames{
		Doctors:      cfg.SheetDoctors,
		Branches:     cfg.SheetBranches,
		Services:     cfg.SheetServices,
		Availability: cfg.SheetAvailability,
	}, cfg.DataCacheTTL, parser, logger)

	llmClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLMTimeout)

	classifier := intent.NewClassifier(llmClient, cfg.IntentModel, redisClient, cfg.IntentCacheTTL, gateway, m, logger)
	responder := agent.New(llmClient, cfg.AgentModel, redisClient, cfg.AgentCacheTTL, gateway, m, logger)

	var syncClient booking.SyncClient
	if cfg.BookingSyncURL != "" {
		syncClient = booking.NewHTTPSync(cfg.BookingSyncURL)
	}
	bookingManager := booking.NewManager(bookingStore, parser, syncClient, m, logger)

	historyManager := conversation.NewManager(turnStore, logger)
	processor := conversation.NewRouter(classifier, bookingManager, responder, gateway, historyManager, logger)

	whatsapp := platforms.NewWhatsApp(platforms.WhatsAppConfig{
		VerifyToken:   cfg.WhatsAppVerifyToken,
		WebhookSecret: cfg.WhatsAppWebhookSecret,
		APIURL:        cfg.WhatsAppAPIURL,
		AccessToken:   cfg.WhatsAppAccessToken,
	}, logger)
	adapters := []platforms.Adapter{
		whatsapp,
		platforms.NewInstagram(cfg.InstagramWebhookSecret, logger),
		platforms.NewTikTok(cfg.TikTokWebhookSecret, logger),
	}

	limiter := middleware.NewUserLimiter(cfg.RateLimitPerMinute)
	defer limiter.Close()

	healthChecks := map[string]func(context.Context) error{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"data": func(ctx context.Context) error {
			_, err := gateway.Branches(ctx)
			return err
		},
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Webhooks:           handlers.NewWebhookHandler(adapters, whatsapp, processor, dedupeStore, limiter, m, logger),
		Chat:               handlers.NewChatHandler(processor, limiter, cfg.Env == "development", logger),
		Health:             handlers.NewHealthHandler("clinic-bot", healthChecks),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
