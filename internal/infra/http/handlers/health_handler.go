package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type ConnectionChecker interface {
	Healthy() bool
}

type HealthHandler struct {
	DB        Pinger
	RabbitMQ  ConnectionChecker
	Redis     Pinger
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler accepts nil for dependencies that are not configured.
func NewHealthHandler(db Pinger, rabbitMQ ConnectionChecker, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		RabbitMQ:  rabbitMQ,
		Redis:     redis,
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	deps := map[string]string{
		"database": ping(ctx, h.DB),
		"redis":    ping(ctx, h.Redis),
		"rabbitmq": "not configured",
	}
	if h.RabbitMQ != nil {
		if h.RabbitMQ.Healthy() {
			deps["rabbitmq"] = "healthy"
		} else {
			deps["rabbitmq"] = "unhealthy: connection closed"
		}
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
