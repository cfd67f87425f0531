package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagship/flagship/internal/api"
	"github.com/flagship/flagship/internal/api/models"
	"github.com/flagship/flagship/internal/flag"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func newOpsServer(t *testing.T, pinger interface{ Ping(context.Context) error }) *httptest.Server {
	t.Helper()

	repo := flag.NewMemoryRepository()
	service := flag.NewService(flag.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:       "1.2.3",
		BuildTime:     "2026-01-01T00:00:00Z",
		Logger:        zerolog.Nop(),
		FlagService:   service,
		StoragePinger: pinger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthCheck(t *testing.T) {
	srv := newOpsServer(t, flag.NewMemoryRepository())

	resp, err := http.Get(srv.URL + "/v1/ops/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health models.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.3", health.Details["version"])
}

func TestReadinessCheck(t *testing.T) {
	srv := newOpsServer(t, flag.NewMemoryRepository())

	resp, err := http.Get(srv.URL + "/v1/ops/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health models.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestReadinessCheck_StorageDown(t *testing.T) {
	srv := newOpsServer(t, failingPinger{})

	resp, err := http.Get(srv.URL + "/v1/ops/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var health models.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
	assert.Contains(t, health.Details["storage"], "connection refused")
}
