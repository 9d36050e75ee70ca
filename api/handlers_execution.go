package api

import "net/http"

// ExecutionStatusHandler reports the execution engine's lifecycle status
// and running order counters.
func (h *Handler) ExecutionStatusHandler(w http.ResponseWriter, r *http.Request) {
	stats := h.execEngine.GetStatistics()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            h.execEngine.Status(),
		"orders_submitted":  stats.OrdersSubmitted,
		"orders_filled":     stats.OrdersFilled,
		"orders_rejected":   stats.OrdersRejected,
		"orders_cancelled":  stats.OrdersCancelled,
		"active_orders":     len(h.execEngine.GetActiveOrders()),
	})
}

// ExecutionOrdersHandler lists every order currently being monitored.
func (h *Handler) ExecutionOrdersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.execEngine.GetActiveOrders())
}

// ExecutionHistoryHandler lists every order this engine instance has
// observed, keyed by internal order id.
func (h *Handler) ExecutionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.execEngine.GetOrderHistory())
}
