package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
)

func TestMetricsHandlerPrometheusAndSystem(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 0)
	h := NewMetricsHandler(metrics, nil)

	c, w := newContext(t, http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	c, w = newContext(t, http.MethodGet, "/api/v1/system/metrics", nil)
	h.System(c)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.SystemMetrics
	decode(t, w, &snap)
	assert.EqualValues(t, 1, snap.RequestsTotal)
}

func TestMetricsHandlerWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, w := newContext(t, http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyReportsFailingChecks(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w := newContext(t, http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "store")

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{"store": func(ctx context.Context) error { return nil }})
	c, w = newContext(t, http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
