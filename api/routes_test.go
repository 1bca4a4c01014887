package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/services"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	report := &models.RunReport{
		Ingested: 1,
		Skipped: []models.SkippedMessage{
			{Sender: "someone@example.org"},
		},
	}
	RegisterRoutes(context.Background(), r, &services.Services{}, "secret",
		func() *models.RunReport { return report },
		func(*models.RunReport) {})
	return r
}

func request(r *gin.Engine, path, apiKey string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-MAILPRESS-API-KEY", apiKey)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealthIsOpen(t *testing.T) {
	r := newTestRouter()

	w := request(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusRequiresAPIKey(t *testing.T) {
	r := newTestRouter()

	// The run report carries sender addresses; without a key nothing
	// of it may leak.
	w := request(r, "/status", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "someone@example.org")

	w = request(r, "/status", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, "/status", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "last_run")
	assert.Contains(t, w.Body.String(), "someone@example.org")
}
