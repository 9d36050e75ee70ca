// Package api provides the REST API for the trading pipeline. It includes
// routing, handlers, and middleware.
package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/alexherrero/tradepipe/advisory"
	"github.com/alexherrero/tradepipe/audit"
	"github.com/alexherrero/tradepipe/config"
	"github.com/alexherrero/tradepipe/execution"
	"github.com/alexherrero/tradepipe/realtime"
	"github.com/alexherrero/tradepipe/risk"
	"github.com/alexherrero/tradepipe/strategy"
	"github.com/rs/zerolog/log"
)

// Handler holds the HTTP handlers for the API.
type Handler struct {
	config    *config.Config
	strategies *strategy.Engine
	riskEngine *risk.Engine
	execEngine *execution.Engine
	advisory   *advisory.Service
	store      *audit.Store
	broadcaster *realtime.WebSocketManager
	startTime  time.Time
}

// NewHandler creates a new handler instance wired to every pipeline
// component it fronts.
func NewHandler(
	cfg *config.Config,
	strategies *strategy.Engine,
	riskEngine *risk.Engine,
	execEngine *execution.Engine,
	advisorySvc *advisory.Service,
	store *audit.Store,
	broadcaster *realtime.WebSocketManager,
) *Handler {
	return &Handler{
		config:      cfg,
		strategies:  strategies,
		riskEngine:  riskEngine,
		execEngine:  execEngine,
		advisory:    advisorySvc,
		store:       store,
		broadcaster: broadcaster,
		startTime:   time.Now(),
	}
}

// HealthHandler returns the health status of the API.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"mode":      string(h.config.TradingMode),
		"timestamp": time.Now(),
	})
}

// StatusHandler reports a coarse snapshot of every engine's operating state.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":              string(h.config.TradingMode),
		"risk_active":       h.riskEngine.IsActive(),
		"execution_status":  h.execEngine.Status(),
		"advisory_enabled":  h.advisory.Enabled(),
		"goroutines":        runtime.NumGoroutine(),
		"uptime_seconds":    time.Since(h.startTime).Seconds(),
		"timestamp":         time.Now(),
	})
}

// EngineControlRequest is the confirmation payload for actions that
// mutate engine activation state.
type EngineControlRequest struct {
	Confirm bool `json:"confirm"`
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, code ...string) {
	errCode := "UNKNOWN_ERROR"
	if len(code) > 0 {
		errCode = code[0]
	} else {
		switch status {
		case http.StatusBadRequest:
			errCode = "BAD_REQUEST"
		case http.StatusUnauthorized:
			errCode = "UNAUTHORIZED"
		case http.StatusForbidden:
			errCode = "FORBIDDEN"
		case http.StatusNotFound:
			errCode = "NOT_FOUND"
		case http.StatusServiceUnavailable:
			errCode = "SERVICE_UNAVAILABLE"
		case http.StatusInternalServerError:
			errCode = "INTERNAL_ERROR"
		}
	}

	resp := APIError{
		Error: message,
		Code:  errCode,
	}
	writeJSON(w, status, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
