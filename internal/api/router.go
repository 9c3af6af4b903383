package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/api/middleware"
	"github.com/h7seiji/Modular-Chatbot/internal/handlers"
)

// Config holds router-level settings.
type Config struct {
	ChatRateLimit      int
	HealthRateLimit    int
	RateLimitWhitelist []string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, limiterClient *redis.Client, cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // 64KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(limiterClient, logger, middleware.RateLimiterConfig{
		ChatRequestsPerMinute:   cfg.ChatRateLimit,
		HealthRequestsPerMinute: cfg.HealthRateLimit,
		Whitelist:               cfg.RateLimitWhitelist,
	})
	r.Use(limiter.Middleware)

	// CORS for browser frontends
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/chat", h.Chat)
	r.Get("/conversations/{userID}", h.ListConversations)
	r.Delete("/conversations/{userID}/{conversationID}", h.DeleteConversation)

	return r
}
