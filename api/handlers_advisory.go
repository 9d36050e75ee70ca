package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AnalyzeRequest is the payload for the portfolio risk analysis route.
type AnalyzeRequest struct {
	N int `json:"n" validate:"gte=0,lte=10"`
}

// AnalyzePortfolioHandler runs the advisory service's deterministic risk
// scoring (and, if enabled, an LLM narrative) over the current account and
// positions, then asks it to generate up to N trade ideas.
func (h *Handler) AnalyzePortfolioHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	_ = decodeJSON(r, &req)
	if req.N == 0 {
		req.N = 3
	}
	if verr := validateStruct(req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	ctx := r.Context()
	account, err := h.execEngine.GetAccount(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "BROKER_UNAVAILABLE")
		return
	}
	positions, err := h.execEngine.GetPositions(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "BROKER_UNAVAILABLE")
		return
	}

	score, narrative, err := h.advisory.AnalyzePortfolioRisk(ctx, account, positions)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ADVISORY_FAILED")
		return
	}
	ideas, err := h.advisory.GenerateTradeIdeas(ctx, account, positions, nil, req.N)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ADVISORY_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"risk_score": score,
		"narrative":  narrative,
		"ideas":      ideas,
	})
}

// IdeaActionRequest is the payload for approving or rejecting a trade idea.
type IdeaActionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Notes  string `json:"notes"`
}

// IdeaActionHandler approves or rejects a previously generated trade idea.
// Approval mints a fresh AI-sourced TradeSignal, which the advisory
// service publishes as a SignalGenerated event for risk validation.
func (h *Handler) IdeaActionHandler(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	var req IdeaActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if verr := validateStruct(req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	switch req.Action {
	case "approve":
		signal, err := h.advisory.ApproveTradeIdea(ideaID, req.Notes)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error(), "IDEA_NOT_FOUND")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "approved", "signal": signal})
	case "reject":
		if err := h.advisory.RejectTradeIdea(ideaID, req.Notes); err != nil {
			writeError(w, http.StatusNotFound, err.Error(), "IDEA_NOT_FOUND")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
	}
}
