package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

type fakeFaqCache struct {
	err     error
	entries int
	reloads int
}

func (f *fakeFaqCache) Reload(_ context.Context) error {
	f.reloads++
	return f.err
}

func (f *fakeFaqCache) Len() int { return f.entries }

type fakeUnanswered struct {
	questions []models.UnansweredQuestion
	err       error
	gotLimit  int
}

func (f *fakeUnanswered) ListPending(_ context.Context, limit int) ([]models.UnansweredQuestion, error) {
	f.gotLimit = limit
	return f.questions, f.err
}

func newAdminRouter(faq *fakeFaqCache, unanswered *fakeUnanswered) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(faq, unanswered, nil)
	router := gin.New()
	router.POST("/api/admin/reload_faq", handler.ReloadFaq)
	router.GET("/api/admin/unanswered", handler.ListUnanswered)
	return router
}

func TestReloadFaq(t *testing.T) {
	faq := &fakeFaqCache{entries: 42}
	router := newAdminRouter(faq, &fakeUnanswered{})

	w := postJSON(t, router, "/api/admin/reload_faq", gin.H{}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "success", "entries": 42}`, w.Body.String())
	assert.Equal(t, 1, faq.reloads)
}

func TestReloadFaqFailureKeepsStatus(t *testing.T) {
	faq := &fakeFaqCache{err: apperrors.New(apperrors.KindInternal, "Error interno del servidor.")}
	router := newAdminRouter(faq, &fakeUnanswered{})

	w := postJSON(t, router, "/api/admin/reload_faq", gin.H{}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListUnanswered(t *testing.T) {
	unanswered := &fakeUnanswered{questions: []models.UnansweredQuestion{
		{ID: 7, Pregunta: "¿Dónde pago la matrícula?", Fecha: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)},
	}}
	router := newAdminRouter(&fakeFaqCache{}, unanswered)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/unanswered?limit=25", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, unanswered.gotLimit)

	var resp struct {
		Preguntas []models.UnansweredQuestion `json:"preguntas"`
		Total     int                         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "¿Dónde pago la matrícula?", resp.Preguntas[0].Pregunta)
}

func TestListUnansweredDefaultLimit(t *testing.T) {
	unanswered := &fakeUnanswered{}
	router := newAdminRouter(&fakeFaqCache{}, unanswered)

	for _, path := range []string{"/api/admin/unanswered", "/api/admin/unanswered?limit=abc", "/api/admin/unanswered?limit=-3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, 100, unanswered.gotLimit, path)
	}
}

func TestListUnansweredEmpty(t *testing.T) {
	router := newAdminRouter(&fakeFaqCache{}, &fakeUnanswered{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/unanswered", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"preguntas": [], "total": 0}`, w.Body.String())
}
