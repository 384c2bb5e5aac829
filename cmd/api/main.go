package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/api/handlers"
	"github.com/dvloznov/receipt-ledger/internal/api/middleware"
	"github.com/dvloznov/receipt-ledger/internal/config"
	"github.com/dvloznov/receipt-ledger/internal/infra/postgres"
	"github.com/dvloznov/receipt-ledger/internal/llm"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
)

// maxRequestBody caps uploads; several phone photos fit comfortably.
const maxRequestBody = 64 << 20

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	dbURL := flag.String("db", cfg.DatabaseURL, "PostgreSQL connection URL (or set DB_URL env)")
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	db, err := postgres.Open(config.NormalizeDatabaseURL(*dbURL), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close(db)
	repo := postgres.NewRepository(db)

	// The model client is decided once: live, or disabled for the process lifetime
	ai := llm.New(ctx, llm.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})

	router := handlers.NewRouter(handlers.Handlers{
		Users:        handlers.NewUsersHandler(repo),
		Transactions: handlers.NewTransactionsHandler(repo),
		UserSettings: handlers.NewUserSettingsHandler(repo),
		AI:           handlers.NewAIHandler(pipeline.NewIngester(ai, repo), pipeline.NewAdvisor(ai, repo)),
	})

	handler := middleware.Chain(router,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID(log),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.MaxBodySize(maxRequestBody),
	)

	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Model calls on several images can take minutes
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", *port).
			Bool("ai_enabled", ai.Enabled()).
			Str("model", ai.Model()).
			Strs("allowed_origins", cfg.AllowedOrigins).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
