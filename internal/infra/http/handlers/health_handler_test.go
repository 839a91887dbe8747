package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/infra/http/handlers"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type connState bool

func (c connState) Healthy() bool { return bool(c) }

func healthy(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		handler  *handlers.HealthHandler
		wantCode int
		wantDeps map[string]any
	}{
		{
			name:     "all healthy",
			handler:  handlers.NewHealthHandler(pingFunc(healthy), connState(true), pingFunc(healthy), "test"),
			wantCode: http.StatusOK,
			wantDeps: map[string]any{"database": "healthy", "rabbitmq": "healthy", "redis": "healthy"},
		},
		{
			name:     "optional deps absent",
			handler:  handlers.NewHealthHandler(pingFunc(healthy), nil, nil, "test"),
			wantCode: http.StatusOK,
			wantDeps: map[string]any{"database": "healthy", "rabbitmq": "not configured", "redis": "not configured"},
		},
		{
			name: "database down",
			handler: handlers.NewHealthHandler(pingFunc(func(context.Context) error {
				return errors.New("connection refused")
			}), connState(false), nil, "test"),
			wantCode: http.StatusServiceUnavailable,
			wantDeps: map[string]any{
				"database": "unhealthy: connection refused",
				"rabbitmq": "unhealthy: connection closed",
				"redis":    "not configured",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler.Handle(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantCode, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantDeps, body["dependencies"])
			assert.Equal(t, "test", body["version"])
		})
	}
}
