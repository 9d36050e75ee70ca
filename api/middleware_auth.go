package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/alexherrero/tradepipe/config"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware creates a middleware that checks for a valid bearer
// token. It requires the Authorization header to carry "Bearer
// <TRADING_API_KEY>". Uses constant-time comparison to prevent timing
// attacks.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.TradingAPIKey == "" {
				log.Warn().Msg("no TRADING_API_KEY configured - authentication disabled (dev mode only)")
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.TradingAPIKey)) != 1 {
				log.Warn().
					Str("ip", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("unauthorized access attempt: invalid bearer token")
				writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
