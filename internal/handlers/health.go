package handlers

import (
	"context"
	"net/http"
	"time"
)

// Check represents the status of a dependency health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status           string           `json:"status"` // "healthy" or "degraded"
	Timestamp        string           `json:"timestamp"`
	Version          string           `json:"version"`
	AgentsRegistered int              `json:"agents_registered"`
	Checks           map[string]Check `json:"checks,omitempty"`
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	status := "healthy"
	statusCode := http.StatusOK

	redisStart := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		checks["redis"] = Check{Status: "fail", Message: "connection failed"}
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["redis"] = Check{Status: "pass", Latency: time.Since(redisStart).String()}
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:           status,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Version:          version,
		AgentsRegistered: h.router.AgentCount(),
		Checks:           checks,
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "modular-chatbot",
		Version: version,
	})
}
