package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/api"
	"github.com/JonahHouse/ElPaseoAuto/internal/auth"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/handlers"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey     = "api-secret"
	testCronSecret = "cron-secret"
)

type recordingRunner struct {
	mu       sync.Mutex
	triggers []domain.Trigger
}

func (r *recordingRunner) Run(_ context.Context, trigger domain.Trigger) (*job.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	return &job.Outcome{LogID: int64(len(r.triggers)), Status: domain.ScrapeStatusCompleted}, nil
}

func (r *recordingRunner) InProgress() bool { return false }

func newRouter(t *testing.T, runner *recordingRunner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	log := logger.NewNop()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("inventory_sync_runs_total 0\n"))
	})

	router := gin.New()
	api.SetupRoutes(api.Routes{
		Sync:        handlers.NewSyncHandler(runner, store, log),
		Inventory:   handlers.NewInventoryHandler(store, log),
		Auth:        auth.Middleware(auth.Config{AdminSecret: testAPIKey, CronSecret: testCronSecret}, log),
		Metrics:     metrics,
		CORSOrigins: []string{"http://localhost:3000"},
	})(router)
	return router
}

func TestSetupRoutes_Auth(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		header   string
		value    string
		wantCode int
	}{
		{name: "sync without credentials", method: http.MethodPost, path: "/api/v1/sync", wantCode: http.StatusUnauthorized},
		{name: "sync with api key", method: http.MethodPost, path: "/api/v1/sync", header: auth.APIKeyHeader, value: testAPIKey, wantCode: http.StatusOK},
		{name: "logs without credentials", method: http.MethodGet, path: "/api/v1/sync/logs", wantCode: http.StatusUnauthorized},
		{name: "stats with api key", method: http.MethodGet, path: "/api/v1/inventory/stats", header: auth.APIKeyHeader, value: testAPIKey, wantCode: http.StatusOK},
		{name: "legacy path with cron secret", method: http.MethodPost, path: "/api/scrape", header: auth.CronSecretHeader, value: testCronSecret, wantCode: http.StatusOK},
		{name: "legacy path with wrong secret", method: http.MethodPost, path: "/api/scrape", header: auth.CronSecretHeader, value: "nope", wantCode: http.StatusUnauthorized},
		{name: "vehicle lookup is public", method: http.MethodGet, path: "/api/v1/vehicles/UNKNOWN", wantCode: http.StatusNotFound},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(t, &recordingRunner{})

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestSetupRoutes_TriggerSource(t *testing.T) {
	runner := &recordingRunner{}
	router := newRouter(t, runner)

	for _, header := range []string{auth.APIKeyHeader, auth.CronSecretHeader} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", http.NoBody)
		if header == auth.APIKeyHeader {
			req.Header.Set(header, testAPIKey)
		} else {
			req.Header.Set(header, testCronSecret)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, []domain.Trigger{domain.TriggerAPI, domain.TriggerScheduler}, runner.triggers)
}

func TestSetupRoutes_CORSPreflight(t *testing.T) {
	router := newRouter(t, &recordingRunner{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
