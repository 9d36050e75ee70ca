package api

import "net/http"

// RiskStatusHandler reports whether the risk engine is active along with
// its running approval/rejection counters.
func (h *Handler) RiskStatusHandler(w http.ResponseWriter, r *http.Request) {
	stats := h.riskEngine.GetStatistics()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":   h.riskEngine.IsActive(),
		"rules":    h.riskEngine.ListRules(),
		"approved": stats.Approved,
		"rejected": stats.Rejected,
	})
}

// ActivateRiskHandler turns the risk engine back on. Unlike deactivation,
// it takes no request body and needs no confirmation.
func (h *Handler) ActivateRiskHandler(w http.ResponseWriter, r *http.Request) {
	h.riskEngine.Activate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// DeactivateRiskHandler turns the risk engine off, causing every
// subsequent signal to be rejected until it is reactivated.
func (h *Handler) DeactivateRiskHandler(w http.ResponseWriter, r *http.Request) {
	var req EngineControlRequest
	if err := decodeJSON(r, &req); err != nil || !req.Confirm {
		writeError(w, http.StatusBadRequest, `confirmation required: {"confirm": true}`, "CONFIRMATION_REQUIRED")
		return
	}
	h.riskEngine.Deactivate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "inactive"})
}
