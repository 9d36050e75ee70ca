package api

import (
	"net/http"
	"time"

	"github.com/alexherrero/tradepipe/models"
)

// SimulateMarketEventRequest is the payload for manually injecting a
// market data tick into the strategy engine, used for demos and
// integration testing without a live broker market data stream.
type SimulateMarketEventRequest struct {
	Symbol  string         `json:"symbol" validate:"required"`
	Type    string         `json:"type" validate:"required,oneof=tick bar volatility option_chain"`
	Payload map[string]any `json:"payload" validate:"required"`
}

// SimulateMarketEventHandler feeds a synthetic MarketEvent through the
// strategy registry, returning any signals it produced.
func (h *Handler) SimulateMarketEventHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateMarketEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if verr := validateStruct(req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	evt := models.MarketEvent{
		Type:      models.MarketEventType(req.Type),
		Symbol:    req.Symbol,
		Timestamp: time.Now().UTC(),
		Payload:   req.Payload,
	}

	signals := h.strategies.ProcessMarketEvent(evt)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signals_generated": len(signals),
		"signals":           signals,
	})
}
