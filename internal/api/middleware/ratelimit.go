package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/metrics"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	ChatRequestsPerMinute   int      // budget for POST /chat
	HealthRequestsPerMinute int      // budget for health-class endpoints
	Whitelist               []string // IPs or CIDRs exempt from rate limiting
}

// RateLimiter implements sliding window rate limiting backed by Redis, so
// counters survive restarts and stay correct under concurrent requests.
type RateLimiter struct {
	client       *redis.Client
	limits       map[string]RateLimit
	logger       zerolog.Logger
	whitelist    []*net.IPNet
	whitelistIPs map[string]bool
}

// NewRateLimiter creates a new rate limiter keyed by client IP.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	if cfg.ChatRequestsPerMinute <= 0 {
		cfg.ChatRequestsPerMinute = 30
	}
	if cfg.HealthRequestsPerMinute <= 0 {
		cfg.HealthRequestsPerMinute = 100
	}

	rl := &RateLimiter{
		client:       client,
		logger:       logger,
		whitelistIPs: make(map[string]bool),
		limits: map[string]RateLimit{
			"POST /chat":             {cfg.ChatRequestsPerMinute, time.Minute},
			"GET /health":            {cfg.HealthRequestsPerMinute, time.Minute},
			"GET /conversations/":    {cfg.HealthRequestsPerMinute, time.Minute},
			"DELETE /conversations/": {cfg.HealthRequestsPerMinute, time.Minute},
		},
	}

	// Parse whitelist entries
	for _, entry := range cfg.Whitelist {
		if strings.Contains(entry, "/") {
			// CIDR notation
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			// Single IP
			rl.whitelistIPs[entry] = true
		}
	}

	if len(cfg.Whitelist) > 0 {
		logger.Info().
			Int("ips", len(rl.whitelistIPs)).
			Int("cidrs", len(rl.whitelist)).
			Msg("rate limit whitelist configured")
	}

	return rl
}

// isWhitelisted checks if an IP is in the whitelist.
func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.whitelistIPs[ipStr] {
		return true
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CheckAndIncrement checks the rate limit and increments the counter.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Add(-window)

	// Fixed window key based on the current time bucket
	windowKey := fmt.Sprintf("%s:%d", key, now.Unix()/int64(window.Seconds()))

	pipe := rl.client.Pipeline()

	// Remove old entries outside window
	pipe.ZRemRangeByScore(ctx, windowKey, "-inf", fmt.Sprintf("%d", windowStart.UnixMilli()))

	// Count current entries
	countCmd := pipe.ZCard(ctx, windowKey)

	// Add current request with unique member
	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})

	// Set TTL on key
	pipe.Expire(ctx, windowKey, window*2)

	_, _ = pipe.Exec(ctx)

	count := countCmd.Val()
	remaining := limit - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(window)
	allowed := count < int64(limit)

	return allowed, remaining, resetAt
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)

		// Skip rate limiting for whitelisted IPs
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		// Find matching limit
		limit := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:ip:" + ip + ":" + r.URL.Path
		allowed, remaining, resetAt := rl.CheckAndIncrement(r.Context(), key, limit.Requests, limit.Window)

		// Set rate limit headers
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))

			metrics.RateLimitHits.WithLabelValues(r.URL.Path).Inc()

			rl.logger.Warn().
				Str("type", "security").
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// findLimit finds the matching rate limit for a request.
func (rl *RateLimiter) findLimit(r *http.Request) *RateLimit {
	key := r.Method + " " + r.URL.Path

	for pattern, limit := range rl.limits {
		if strings.HasPrefix(key, pattern) {
			l := limit // Copy to avoid pointer issues
			return &l
		}
	}
	return nil
}
