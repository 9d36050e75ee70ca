// Package advisory generates human-approval-gated trade ideas from
// portfolio and market context via an external language model. Its
// output never auto-executes: an idea only reaches the risk engine after
// a user approves it, at which point a fresh AI-sourced TradeSignal is
// minted.
package advisory

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

const systemPrompt = `You are a conservative trading risk advisor. Always frame ` +
	`suggestions in terms of risk management, position sizing, and diversification. ` +
	`Never recommend a trade without noting its downside.`

// Service produces TradeIdeas and portfolio analyses. With no LLMClient
// configured it runs in disabled-stub mode, returning deterministic
// placeholder payloads instead of calling out to a model, mirroring the
// original service's ai_enabled=False behavior when no API key is
// configured.
type Service struct {
	client *LLMClient
	bus    *events.Bus

	mu    sync.Mutex
	ideas map[string]models.TradeIdea
}

// NewService builds an advisory service. client may be nil, in which
// case every method runs in disabled-stub mode.
func NewService(client *LLMClient, bus *events.Bus) *Service {
	return &Service{
		client: client,
		bus:    bus,
		ideas:  make(map[string]models.TradeIdea),
	}
}

// Enabled reports whether a real LLM backend is configured.
func (s *Service) Enabled() bool { return s.client != nil }

// RiskScore is the deterministic 0-100 portfolio risk assessment.
type RiskScore struct {
	Score                 float64 `json:"score"`
	MaxPositionPct        float64 `json:"max_position_pct"`
	TotalExposurePct      float64 `json:"total_exposure_pct"`
	DiversificationScore  float64 `json:"diversification_score"`
}

// AnalyzePortfolioRisk computes the deterministic risk and
// diversification scores and, if enabled, augments them with a
// model-generated narrative.
func (s *Service) AnalyzePortfolioRisk(ctx context.Context, account models.AccountSnapshot, positions []models.PositionSnapshot) (RiskScore, string, error) {
	maxPositionPct, totalExposurePct := exposureStats(account, positions)
	n := len(positions)

	risk := minF(maxPositionPct*2, 50) + minF(totalExposurePct/2, 30) + maxF(20-2*float64(n), 0)
	diversification := minF(10*float64(n), 60) + maxF(40-maxPositionPct, 0)

	score := RiskScore{
		Score:                risk,
		MaxPositionPct:       maxPositionPct,
		TotalExposurePct:     totalExposurePct,
		DiversificationScore: diversification,
	}

	if !s.Enabled() {
		return score, stubNarrative("portfolio_risk"), nil
	}

	prompt := fmt.Sprintf("Account equity %s, %d open positions, max single position %.1f%% of equity, total exposure %.1f%%. Assess portfolio risk.",
		account.Equity, n, maxPositionPct, totalExposurePct)
	narrative, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("advisory LLM call failed, falling back to stub narrative")
		return score, stubNarrative("portfolio_risk"), nil
	}
	return score, narrative, nil
}

// GenerateTradeIdeas asks the model for up to n trade ideas given
// portfolio and market context, publishing a TradeIdeaGenerated event
// for each one produced.
func (s *Service) GenerateTradeIdeas(ctx context.Context, account models.AccountSnapshot, positions []models.PositionSnapshot, marketContext map[string]any, n int) ([]models.TradeIdea, error) {
	if !s.Enabled() {
		idea := models.NewTradeIdea(
			"AI advisory is disabled",
			"Set OPENAI_API_KEY to enable trade idea generation.",
			"No risk taken: no signal is suggested.",
			0,
			nil,
			marketContext,
		)
		s.store(idea)
		return []models.TradeIdea{idea}, nil
	}

	prompt := fmt.Sprintf("Given %d open positions and the supplied market context, suggest up to %d trade ideas with rationale and risk notes.", len(positions), n)
	narrative, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate trade ideas: %w", err)
	}

	idea := models.NewTradeIdea("AI-suggested idea", narrative, "Review before approving; this is not investment advice.", 0.5, nil, marketContext)
	s.store(idea)
	return []models.TradeIdea{idea}, nil
}

// VolRegime classifies a VIX level into a coarse volatility regime.
type VolRegime string

const (
	VolRegimeHigh   VolRegime = "high"
	VolRegimeLow    VolRegime = "low"
	VolRegimeNormal VolRegime = "normal"
)

// ClassifyVolRegime buckets vol.VIXLevel: >25 is high, <15 is low,
// otherwise normal.
func ClassifyVolRegime(vixLevel float64) VolRegime {
	switch {
	case vixLevel > 25:
		return VolRegimeHigh
	case vixLevel < 15:
		return VolRegimeLow
	default:
		return VolRegimeNormal
	}
}

// AnalyzeOptionsStrategies produces commentary on options positioning
// given a volatility snapshot and an optional option-chain summary.
func (s *Service) AnalyzeOptionsStrategies(ctx context.Context, vol models.VolatilitySnapshot, chain *models.OptionChainSummary) (string, error) {
	regime := ClassifyVolRegime(vol.VIXLevel)
	if !s.Enabled() {
		return stubNarrative(fmt.Sprintf("options_analysis_%s_vol", regime)), nil
	}

	prompt := fmt.Sprintf("Volatility regime is %s (VIX %.1f, implied vol %.1f%%). Suggest conservative options strategies appropriate to this regime.", regime, vol.VIXLevel, vol.ImpliedVol*100)
	if chain != nil {
		prompt += fmt.Sprintf(" Put/call ratio is %.2f.", chain.PutCallRatio)
	}
	narrative, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return stubNarrative(fmt.Sprintf("options_analysis_%s_vol", regime)), nil
	}
	return narrative, nil
}

// AnswerTradingQuestion passes a free-form educational question through
// to the model, unguarded beyond the conservative system prompt.
func (s *Service) AnswerTradingQuestion(ctx context.Context, question string) (string, error) {
	if !s.Enabled() {
		return stubNarrative("question"), nil
	}
	answer, err := s.client.Complete(ctx, systemPrompt, question)
	if err != nil {
		return "", fmt.Errorf("failed to answer trading question: %w", err)
	}
	return answer, nil
}

// ApproveTradeIdea marks idea approved and mints a fresh AI-sourced
// TradeSignal for it. After the TradeIdeaApproved event, the signal is
// published as a SignalGenerated event, so it reaches risk.Engine through
// the same bus subscription as strategy-sourced signals.
func (s *Service) ApproveTradeIdea(ideaID, userNotes string) (models.TradeSignal, error) {
	s.mu.Lock()
	idea, ok := s.ideas[ideaID]
	s.mu.Unlock()
	if !ok {
		return models.TradeSignal{}, fmt.Errorf("unknown trade idea: %s", ideaID)
	}
	if idea.SuggestedSignal == nil {
		return models.TradeSignal{}, fmt.Errorf("trade idea %s carries no suggested signal to approve", ideaID)
	}

	suggested := *idea.SuggestedSignal
	signal, err := models.NewTradeSignal(models.TradeSignalParams{
		Symbol:       suggested.Symbol,
		Side:         suggested.Side,
		Qty:          suggested.Qty,
		OrderType:    suggested.OrderType,
		Confidence:   suggested.Confidence,
		Source:       models.SourceAI,
		StrategyName: "advisory",
		Price:        suggested.Price,
		StopPrice:    suggested.StopPrice,
	})
	if err != nil {
		return models.TradeSignal{}, fmt.Errorf("failed to mint signal from approved idea: %w", err)
	}

	approvedFlag := true
	idea.Approved = &approvedFlag
	idea.UserNotes = userNotes
	s.mu.Lock()
	s.ideas[ideaID] = idea
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(models.NewTradeIdeaApprovedEvent(idea, &signal))
		s.bus.Publish(models.NewSignalGeneratedEvent(signal, signal.StrategyName))
	}
	return signal, nil
}

// RejectTradeIdea marks idea rejected with a user-supplied reason.
func (s *Service) RejectTradeIdea(ideaID, reason string) error {
	s.mu.Lock()
	idea, ok := s.ideas[ideaID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown trade idea: %s", ideaID)
	}
	approvedFlag := false
	idea.Approved = &approvedFlag
	idea.UserNotes = reason
	s.ideas[ideaID] = idea
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(models.NewTradeIdeaRejectedEvent(idea, reason))
	}
	return nil
}

func (s *Service) store(idea models.TradeIdea) {
	s.mu.Lock()
	s.ideas[idea.ID] = idea
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.Publish(models.NewTradeIdeaGeneratedEvent(idea))
	}
}

func stubNarrative(kind string) string {
	return fmt.Sprintf("AI advisory disabled (no OPENAI_API_KEY configured); no %s analysis was performed.", kind)
}

func exposureStats(account models.AccountSnapshot, positions []models.PositionSnapshot) (maxPositionPct, totalExposurePct float64) {
	if account.Equity.IsZero() {
		return 0, 0
	}
	equity, _ := account.Equity.Float64()
	var total float64
	for _, p := range positions {
		if p.ExposurePct > maxPositionPct {
			maxPositionPct = p.ExposurePct
		}
		total += p.ExposurePct
	}
	_ = equity
	return maxPositionPct, total
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
