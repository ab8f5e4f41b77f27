package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/driftline/chatrelay/internal/config"
	"github.com/driftline/chatrelay/internal/database"
	"github.com/driftline/chatrelay/internal/handler"
	"github.com/driftline/chatrelay/internal/jobs"
	"github.com/driftline/chatrelay/internal/middleware"
	"github.com/driftline/chatrelay/internal/provider"
	"github.com/driftline/chatrelay/internal/redis"
	"github.com/driftline/chatrelay/internal/repository"
	"github.com/driftline/chatrelay/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Optional .env for local development.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)
	eventRepo := repository.NewEventRepository(db.DB)

	completer := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderModel)

	sessionService := service.NewSessionService(sessionRepo)
	assembler := service.NewPromptAssembler(eventRepo, cfg.ContextWindow)
	relay := service.NewRelay(eventRepo, assembler, completer, cfg.StreamChunkSize, cfg.StreamDelay())
	summarizer := service.NewSummarizer(sessionRepo, eventRepo, completer, redisClient)
	tasks := service.NewTaskSet()

	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, config.DefaultRateLimitPerMin)

	chatHandler := handler.NewChatHandler(sessionService, relay, summarizer, tasks)
	sessionHandler := handler.NewSessionHandler(sessionService, redisClient, cfg.SummaryCacheTTL())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	// Long-lived duplex chat connections; no request timeout applies here.
	chatHandler.RegisterRoutes(r)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Mount("/", sessionHandler.Routes())
	})

	janitor := jobs.NewJanitorJob(sessionRepo, config.JanitorInterval, config.AbandonedSessionCutoff)
	janitor.Start()
	defer janitor.Stop()

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
		// Read/write timeouts stay unset: websocket sessions are long-lived
		// and outlive any sane request deadline.
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Give detached summarization tasks a bounded chance to land; anything
	// still running past the deadline is lost with the process.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), config.TaskDrainTimeout)
	defer drainCancel()
	if err := tasks.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("summarization tasks not drained")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
