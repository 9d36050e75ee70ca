package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeIdea is an advisory-only suggestion produced by the advisory
// service. It never flows into the risk engine unless a user approves it,
// at which point a fresh TradeSignal with Source = SourceAI is minted.
type TradeIdea struct {
	ID               string
	Description      string
	Rationale        string
	RiskNotes        string
	Confidence       float64
	CreatedAt        time.Time
	SuggestedSignal  *TradeSignal
	MarketContext    map[string]any
	Approved         *bool
	ApprovedAt       *time.Time
	UserNotes        string
}

// NewTradeIdea constructs a TradeIdea with a generated id and timestamp.
func NewTradeIdea(description, rationale, riskNotes string, confidence float64, suggested *TradeSignal, marketContext map[string]any) TradeIdea {
	if marketContext == nil {
		marketContext = map[string]any{}
	}
	return TradeIdea{
		ID:              uuid.NewString(),
		Description:     description,
		Rationale:       rationale,
		RiskNotes:       riskNotes,
		Confidence:      confidence,
		CreatedAt:       time.Now().UTC(),
		SuggestedSignal: suggested,
		MarketContext:   marketContext,
	}
}
