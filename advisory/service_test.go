package advisory

import (
	"context"
	"testing"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePortfolioRisk_StubModeScoresDeterministically(t *testing.T) {
	svc := NewService(nil, events.NewBus())
	account := models.AccountSnapshot{Equity: decimal.NewFromInt(100000)}
	positions := []models.PositionSnapshot{
		{Symbol: "AAPL", ExposurePct: 10},
		{Symbol: "MSFT", ExposurePct: 5},
	}

	score, narrative, err := svc.AnalyzePortfolioRisk(context.Background(), account, positions)
	require.NoError(t, err)
	require.NotEmpty(t, narrative)

	wantRisk := minF(10*2, 50) + minF(15.0/2, 30) + maxF(20-2*2, 0)
	wantDiv := minF(10*2, 60) + maxF(40-10, 0)
	require.InDelta(t, wantRisk, score.Score, 0.001)
	require.InDelta(t, wantDiv, score.DiversificationScore, 0.001)
}

func TestClassifyVolRegime(t *testing.T) {
	require.Equal(t, VolRegimeHigh, ClassifyVolRegime(26))
	require.Equal(t, VolRegimeLow, ClassifyVolRegime(14))
	require.Equal(t, VolRegimeNormal, ClassifyVolRegime(20))
}

func TestGenerateTradeIdeas_StubModePublishesAndStores(t *testing.T) {
	bus := events.NewBus()
	received := 0
	bus.Subscribe(func(e models.DomainEvent) {
		if e.Kind == models.EventTradeIdeaGenerated {
			received++
		}
	})
	svc := NewService(nil, bus)

	ideas, err := svc.GenerateTradeIdeas(context.Background(), models.AccountSnapshot{}, nil, nil, 3)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	require.Equal(t, 1, received)
}

func TestApproveTradeIdea_MintsAISourcedSignal(t *testing.T) {
	bus := events.NewBus()
	svc := NewService(nil, bus)

	suggested, err := models.NewTradeSignal(models.TradeSignalParams{
		Symbol: "AAPL", Side: models.SideBuy, Qty: 10, Confidence: 0.7, Source: models.SourceStrategy,
	})
	require.NoError(t, err)
	idea := models.NewTradeIdea("buy AAPL", "momentum", "limited downside", 0.7, &suggested, nil)
	svc.store(idea)

	signal, err := svc.ApproveTradeIdea(idea.ID, "looks good")
	require.NoError(t, err)
	require.Equal(t, models.SourceAI, signal.Source)
	require.Equal(t, "AAPL", signal.Symbol)
	require.NotEqual(t, suggested.ID, signal.ID)
}

func TestApproveTradeIdea_UnknownIdeaErrors(t *testing.T) {
	svc := NewService(nil, events.NewBus())
	_, err := svc.ApproveTradeIdea("missing", "")
	require.Error(t, err)
}

func TestRejectTradeIdea_MarksRejected(t *testing.T) {
	svc := NewService(nil, events.NewBus())
	idea := models.NewTradeIdea("desc", "rationale", "risk", 0.5, nil, nil)
	svc.store(idea)

	require.NoError(t, svc.RejectTradeIdea(idea.ID, "too risky"))

	svc.mu.Lock()
	stored := svc.ideas[idea.ID]
	svc.mu.Unlock()
	require.NotNil(t, stored.Approved)
	require.False(t, *stored.Approved)
}
