package api

import "net/http"

// AccountHandler returns the current account snapshot via the execution
// engine's sole broker connection.
func (h *Handler) AccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.execEngine.GetAccount(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "BROKER_UNAVAILABLE")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// PositionsHandler returns every open position via the execution engine's
// sole broker connection.
func (h *Handler) PositionsHandler(w http.ResponseWriter, r *http.Request) {
	positions, err := h.execEngine.GetPositions(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "BROKER_UNAVAILABLE")
		return
	}
	writeJSON(w, http.StatusOK, positions)
}
