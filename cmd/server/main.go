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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/dbagent-server-go/internal/approval"
	"github.com/openclaw/dbagent-server-go/internal/config"
	"github.com/openclaw/dbagent-server-go/internal/database"
	"github.com/openclaw/dbagent-server-go/internal/delivery"
	"github.com/openclaw/dbagent-server-go/internal/executor"
	"github.com/openclaw/dbagent-server-go/internal/handler"
	"github.com/openclaw/dbagent-server-go/internal/jobs"
	"github.com/openclaw/dbagent-server-go/internal/llm"
	"github.com/openclaw/dbagent-server-go/internal/middleware"
	"github.com/openclaw/dbagent-server-go/internal/redis"
	"github.com/openclaw/dbagent-server-go/internal/schemainfo"
	"github.com/openclaw/dbagent-server-go/internal/thread"
	"github.com/openclaw/dbagent-server-go/internal/workflow"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(cfg.IsProduction()); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
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

	threads := thread.NewStore()
	ledger := approval.NewLedger(cfg.ApprovalTTL())
	sessions := delivery.NewRegistry()
	sqlExecutor := executor.NewSQLExecutor(db)
	inspector := schemainfo.NewInspector(db)

	llmClient := llm.NewClient(llm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})
	router := llm.NewRouter(llmClient)
	generator := llm.NewGenerator(llmClient, inspector)
	responder := llm.NewResponder(llmClient)

	wf := workflow.New(threads, ledger, router, generator, responder, sqlExecutor)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxBodyBytes)

	chatHandler := handler.NewChatHandler(wf, threads, sessions, cfg.StreamDelay())
	approvalHandler := handler.NewApprovalHandler(ledger)
	threadHandler := handler.NewThreadHandler(threads)
	dataHandler := handler.NewDataHandler(inspector, sqlExecutor)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, pingCancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer pingCancel()

		status := "ok"
		code := http.StatusOK
		if err := db.Ping(pingCtx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)

		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/stream", chatHandler.Stream)
		r.Post("/stop", chatHandler.Stop)
		r.Get("/sessions", chatHandler.Sessions)

		r.Get("/conversation-history", threadHandler.ConversationHistory)
		r.Delete("/conversation-history", threadHandler.ClearConversationHistory)

		r.Get("/table-data/{tableName}", dataHandler.TableData)
		r.Get("/database-info", dataHandler.DatabaseInfo)

		r.Mount("/approval", approvalHandler.Routes())
		r.Mount("/threads", threadHandler.Routes())
	})

	sweeperJob := jobs.NewSweeperJob(ledger, sessions, config.SweepInterval, config.SessionRetention)
	sweeperJob.Start()
	defer sweeperJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
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
