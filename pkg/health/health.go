// Package health exposes a minimal liveness/detail HTTP endpoint,
// grounded on the teacher's pkg/health/health.go (fast liveness probe
// plus a slower detailed check, kept separate so orchestration probes
// stay cheap).
package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
)

// Checker reports process liveness and transport connectivity.
type Checker struct {
	bus    bus.Client
	logger *slog.Logger
}

// NewChecker constructs a health checker over the given bus client.
func NewChecker(busClient bus.Client, logger *slog.Logger) *Checker {
	return &Checker{bus: busClient, logger: logger}
}

// Response is the JSON health-check body.
type Response struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services reports the status of external dependencies.
type Services struct {
	Bus string `json:"bus"`
}

// HandlerFunc is a minimal liveness probe: 200 if the process is
// alive, without checking dependencies.
func (c *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			c.logger.Error("failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc reports transport connectivity alongside
// liveness.
func (c *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{Bus: "disconnected"}
		if c.bus != nil && c.bus.IsConnected() {
			services.Bus = "connected"
		}

		status := "healthy"
		statusCode := http.StatusOK
		if services.Bus == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		resp := Response{Status: status, Timestamp: time.Now().UTC().Format(time.RFC3339Nano), Services: services}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			c.logger.Error("failed to encode health response", "error", err)
		}
	}
}
