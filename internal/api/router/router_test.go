package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluedeem/clinic-bot/internal/http/handlers"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

type echoProcessor struct{}

func (echoProcessor) Process(_ context.Context, _, _, message string) (string, error) {
	return "echo: " + message, nil
}

func newTestRouter() http.Handler {
	return New(&Config{
		Logger: logging.Default(),
		Chat:   handlers.NewChatHandler(echoProcessor{}, nil, true, logging.Default()),
		Health: handlers.NewHealthHandler("clinic-bot", nil),
	})
}

func TestHealthRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestChatRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"user_id":"u1","message":"هلا"}`))
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echo: هلا")
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
