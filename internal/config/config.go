package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	RedisURL        string
	ConversationTTL time.Duration

	GeminiAPIKey string
	GeminiModel  string

	HandlerTimeout time.Duration

	// Rate limiting
	ChatRateLimit      int      // requests/minute for POST /chat
	HealthRateLimit    int      // requests/minute for health-class endpoints
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables.
// In development, it loads from a .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ConversationTTL: getDuration("CONVERSATION_TTL", 7*24*time.Hour),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		HandlerTimeout:  getDuration("HANDLER_TIMEOUT", 30*time.Second),
		ChatRateLimit:   getInt("CHAT_RATE_LIMIT", 30),
		HealthRateLimit: getInt("HEALTH_RATE_LIMIT", 100),
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	if cfg.Env == "production" && os.Getenv("REDIS_URL") == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
