package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListStrategiesHandler returns every registered strategy name.
func (h *Handler) ListStrategiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": h.strategies.List(),
		"symbols":    h.strategies.RequiredSymbols(),
	})
}

// ActivateStrategyHandler activates a registered strategy by name.
func (h *Handler) ActivateStrategyHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.strategies.Activate(name); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "STRATEGY_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"strategy": name, "status": "active"})
}

// DeactivateStrategyHandler deactivates a registered strategy by name.
func (h *Handler) DeactivateStrategyHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.strategies.Deactivate(name); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "STRATEGY_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"strategy": name, "status": "inactive"})
}
