package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/agents"
	"github.com/h7seiji/Modular-Chatbot/internal/api"
	"github.com/h7seiji/Modular-Chatbot/internal/config"
	"github.com/h7seiji/Modular-Chatbot/internal/handlers"
	"github.com/h7seiji/Modular-Chatbot/internal/knowledge"
	"github.com/h7seiji/Modular-Chatbot/internal/llm"
	"github.com/h7seiji/Modular-Chatbot/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize conversation store
	convStore, err := store.NewConversationStore(ctx, cfg.RedisURL, cfg.ConversationTTL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer convStore.Close()
	logger.Info().Msg("connected to Redis")

	// Seed the knowledge index
	index := knowledge.NewIndex(convStore.Client(), logger)
	seeded := index.Seed(ctx)
	logger.Info().Int("documents", seeded).Msg("knowledge index seeded")

	// Build the agent registry. Registration order matters: it is the
	// tie-break order for routing decisions.
	router := agents.NewRouterAgent(cfg.HandlerTimeout, logger)
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini client initialization failed")
		}
		router.Register(agents.NewMathAgent(client, logger))
		router.Register(agents.NewKnowledgeAgent(index, client, logger))
		logger.Info().Msg("registered Gemini-backed agents")
	} else {
		router.Register(agents.NewMockMathAgent())
		router.Register(agents.NewMockKnowledgeAgent())
		logger.Warn().Msg("GEMINI_API_KEY not set, registered mock agents")
	}

	// Create router
	h := handlers.NewHandler(router, convStore, cfg.ConversationTTL, logger)
	mux := api.NewRouter(logger, h, convStore.Client(), api.Config{
		ChatRateLimit:      cfg.ChatRateLimit,
		HealthRateLimit:    cfg.HealthRateLimit,
		RateLimitWhitelist: cfg.RateLimitWhitelist,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
