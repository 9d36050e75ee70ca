package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexherrero/tradepipe/config"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("No API Key Configured (Allow all)", func(t *testing.T) {
		cfg := &config.Config{TradingAPIKey: ""}
		middleware := AuthMiddleware(cfg)
		handler := middleware(nextHandler)

		req := httptest.NewRequest("GET", "/api/v1/protected", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("API Key Configured - Missing Header", func(t *testing.T) {
		cfg := &config.Config{TradingAPIKey: "secret123"}
		middleware := AuthMiddleware(cfg)
		handler := middleware(nextHandler)

		req := httptest.NewRequest("GET", "/api/v1/protected", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("API Key Configured - Wrong Token", func(t *testing.T) {
		cfg := &config.Config{TradingAPIKey: "secret123"}
		middleware := AuthMiddleware(cfg)
		handler := middleware(nextHandler)

		req := httptest.NewRequest("GET", "/api/v1/protected", nil)
		req.Header.Set("Authorization", "Bearer wrong-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("API Key Configured - Correct Token", func(t *testing.T) {
		cfg := &config.Config{TradingAPIKey: "secret123"}
		middleware := AuthMiddleware(cfg)
		handler := middleware(nextHandler)

		req := httptest.NewRequest("GET", "/api/v1/protected", nil)
		req.Header.Set("Authorization", "Bearer secret123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
