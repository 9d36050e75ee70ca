package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexherrero/tradepipe/advisory"
	"github.com/alexherrero/tradepipe/broker"
	"github.com/alexherrero/tradepipe/config"
	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/execution"
	"github.com/alexherrero/tradepipe/risk"
	"github.com/alexherrero/tradepipe/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires every engine against an in-memory paper broker so
// routes can be exercised end to end without a live vendor connection.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{TradingMode: "dry_run"}

	bus := events.NewBus()
	paper := broker.NewPaperBroker(decimal.NewFromInt(100000))
	require.NoError(t, paper.Connect(context.Background()))

	strategies := strategy.NewEngine(bus)
	strategies.Register(strategy.NewMACrossover([]string{"AAPL"}, 5, 20, 0.6))
	require.NoError(t, strategies.Activate("MA_Crossover"))

	riskEngine := risk.NewEngine(bus, paper)
	execEngine := execution.NewEngine(paper, bus)
	advisorySvc := advisory.NewService(nil, bus)

	return NewRouter(cfg, strategies, riskEngine, execEngine, advisorySvc, nil, nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestStatusHandler(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, true, body["risk_active"])
	assert.Equal(t, false, body["advisory_enabled"])
}

func TestListStrategiesHandler(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/strategies/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Contains(t, body["strategies"], "MA_Crossover")
}

func TestActivateDeactivateStrategyHandler(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/strategies/MA_Crossover/deactivate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/strategies/MA_Crossover/activate", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActivateStrategyHandler_UnknownStrategy(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/strategies/does-not-exist/activate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIError
	decodeBody(t, rec, &body)
	assert.Equal(t, "STRATEGY_NOT_FOUND", body.Code)
}

func TestRiskStatusHandler(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, true, body["active"])
}

func TestDeactivateRiskHandler_RequiresConfirmation(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/deactivate", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/risk/deactivate", bytes.NewReader([]byte(`{"confirm": true}`)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/risk/status", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, false, body["active"])
}

func TestExecutionStatusHandler(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/execution/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "idle", body["status"])
}

func TestAccountAndPositionsHandlers(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzePortfolioHandler_StubMode(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", bytes.NewReader([]byte(`{"n": 2}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Contains(t, body, "risk_score")
	assert.Contains(t, body, "narrative")
}

func TestSimulateMarketEventHandler_InvalidType(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/market/simulate", bytes.NewReader(
		[]byte(`{"symbol": "AAPL", "type": "not_a_real_type", "payload": {"price": 100}}`),
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulateMarketEventHandler_Valid(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/market/simulate", bytes.NewReader(
		[]byte(`{"symbol": "AAPL", "type": "tick", "payload": {"price": 100.5}}`),
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Contains(t, body, "signals_generated")
}

func TestIdeaActionHandler_UnknownIdea(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/ideas/does-not-exist/action", bytes.NewReader(
		[]byte(`{"action": "approve"}`),
	))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
