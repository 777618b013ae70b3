package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) HealthCheck(_ context.Context) error { return f.err }

func doHealth(t *testing.T, db, redis HealthChecker) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(db, redis).HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthAllHealthy(t *testing.T) {
	w, body := doHealth(t, &fakeChecker{}, &fakeChecker{})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	services := body["services"].(map[string]any)
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "healthy", services["redis"])
}

func TestHealthDatabaseDown(t *testing.T) {
	w, body := doHealth(t, &fakeChecker{err: assert.AnError}, &fakeChecker{})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestHealthRedisDownOnlyDegrades(t *testing.T) {
	w, body := doHealth(t, &fakeChecker{}, &fakeChecker{err: assert.AnError})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestHealthRedisNotConfigured(t *testing.T) {
	w, body := doHealth(t, &fakeChecker{}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	services := body["services"].(map[string]any)
	assert.Equal(t, "not_configured", services["redis"])
}
