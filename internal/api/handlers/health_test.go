package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
	"github.com/eshaffer321/travel-backoffice/internal/api/handlers"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("returns 200 OK with health status", func(t *testing.T) {
		handler := handlers.NewHealthHandler()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.HealthResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response.Status)
		assert.NotEmpty(t, response.Timestamp)
		assert.Equal(t, "0s", response.Uptime)
	})
}

func TestHealthHandler_Fallbacks(t *testing.T) {
	handler := handlers.NewHealthHandler()

	t.Run("not found envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
	})

	t.Run("method not allowed envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeMethod, apiErr.Code)
		assert.Contains(t, apiErr.Message, "PATCH")
	})
}
