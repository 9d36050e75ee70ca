// Package main is the entry point for the trading pipeline. It wires the
// strategy, risk, execution, and advisory engines around a shared event
// bus and starts the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexherrero/tradepipe/advisory"
	"github.com/alexherrero/tradepipe/api"
	"github.com/alexherrero/tradepipe/audit"
	"github.com/alexherrero/tradepipe/broker"
	"github.com/alexherrero/tradepipe/config"
	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/execution"
	"github.com/alexherrero/tradepipe/models"
	"github.com/alexherrero/tradepipe/realtime"
	"github.com/alexherrero/tradepipe/risk"
	"github.com/alexherrero/tradepipe/strategy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("starting trading pipeline...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsLive() {
		log.Warn().Msg("LIVE TRADING MODE - real money at risk")
	} else {
		log.Info().Msg("dry run mode: orders route to the paper broker")
	}

	bus := events.NewBus()

	store, err := audit.NewStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open audit store")
	}
	defer store.Close()
	sink := audit.NewSink(store, bus)

	var b broker.Broker
	if cfg.IsLive() {
		b, err = broker.NewAlpacaBroker()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build Alpaca broker")
		}
	} else {
		b = broker.NewPaperBroker(decimal.NewFromInt(100000))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to broker")
	}

	priceLookup := broker.NewMarketPriceLookup()

	strategies := strategy.NewEngine(bus)
	log.Info().Strs("strategies", cfg.EnabledStrategies).Msg("enabling strategies")
	for _, name := range cfg.EnabledStrategies {
		switch name {
		case "ma_crossover":
			strategies.Register(strategy.NewMACrossover(
				[]string{"SPY", "AAPL", "MSFT"}, 5, 20, 0.6,
			))
		default:
			log.Warn().Str("strategy", name).Msg("unknown strategy name, skipping")
		}
	}
	for _, name := range strategies.List() {
		if err := strategies.Activate(name); err != nil {
			log.Error().Err(err).Str("strategy", name).Msg("failed to activate strategy")
		}
	}

	riskEngine := risk.NewEngine(bus, priceLookup)
	execEngine := execution.NewEngine(b, bus)

	// The execution engine is the only component that may submit orders;
	// it subscribes to SignalApproved so approvals flow through without
	// risk or strategy code ever touching the broker.
	bus.Subscribe(func(e models.DomainEvent) {
		if e.Kind != models.EventSignalApproved {
			return
		}
		approved, ok := e.Metadata["approved_trade"].(models.ApprovedTrade)
		if !ok {
			return
		}
		if _, err := execEngine.ExecuteApprovedTrade(context.Background(), approved); err != nil {
			log.Error().Err(err).Str("signal_id", approved.Signal.ID).Msg("failed to execute approved trade")
		}
	})

	// Strategy-generated signals are run through the risk engine as soon
	// as they are published; approvals re-enter the bus above.
	bus.Subscribe(func(e models.DomainEvent) {
		if e.Kind != models.EventSignalGenerated {
			return
		}
		signal, ok := e.Metadata["signal"].(models.TradeSignal)
		if !ok {
			return
		}
		account, err := execEngine.GetAccount(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("failed to fetch account for risk validation")
			return
		}
		positions, err := execEngine.GetPositions(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("failed to fetch positions for risk validation")
			return
		}
		riskEngine.ValidateSignal(signal, account, positions)
	})

	var advisoryClient *advisory.LLMClient
	if cfg.AdvisoryEnabled() {
		advisoryClient, err = advisory.NewLLMClient("https://api.openai.com/v1", cfg.OpenAIAPIKey)
		if err != nil {
			log.Error().Err(err).Msg("failed to build advisory LLM client, running in stub mode")
			advisoryClient = nil
		}
	}
	advisorySvc := advisory.NewService(advisoryClient, bus)

	broadcaster := realtime.NewWebSocketManager()
	go broadcaster.Run()
	broadcaster.Subscribe(bus)

	router := api.NewRouter(cfg, strategies, riskEngine, execEngine, advisorySvc, store, broadcaster)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := execEngine.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("execution engine shutdown error")
	}
	if err := sink.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit sink shutdown error")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
}
