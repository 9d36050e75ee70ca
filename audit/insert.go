package audit

import (
	"github.com/alexherrero/tradepipe/models"
	"github.com/jmoiron/sqlx"
)

func insertGenericEvents(tx *sqlx.Tx, recs []bufferedRecord) error {
	const q = `INSERT INTO audit_events (event_id, event_type, payload, event_timestamp, ingested_at) VALUES (?, ?, ?, ?, ?)`
	for _, rec := range recs {
		if _, err := tx.Exec(q, rec.event.EventID, string(rec.event.Kind), marshalPayload(rec.event.Metadata), rec.event.Timestamp, rec.ingestedAt); err != nil {
			return err
		}
	}
	return nil
}

func insertTradeSignals(tx *sqlx.Tx, recs []bufferedRecord) error {
	const q = `INSERT INTO trade_signals (signal_id, symbol, side, qty, order_type, confidence, source, strategy_name, created_at, ingested_at) VALUES (?,?,?,?,?,?,?,?,?,?)`
	for _, rec := range recs {
		sig, ok := rec.event.Metadata["signal"].(models.TradeSignal)
		if !ok {
			continue
		}
		if _, err := tx.Exec(q, sig.ID, sig.Symbol, string(sig.Side), sig.Qty, string(sig.OrderType), sig.Confidence, string(sig.Source), sig.StrategyName, sig.CreatedAt, rec.ingestedAt); err != nil {
			return err
		}
	}
	return nil
}

func insertRiskDecisions(tx *sqlx.Tx, recs []bufferedRecord) error {
	const q = `INSERT INTO risk_decisions (signal_id, approved, rejection_reason, rule_outcomes, decided_at, ingested_at) VALUES (?,?,?,?,?,?)`
	for _, rec := range recs {
		switch rec.event.Kind {
		case models.EventSignalApproved:
			approved, ok := rec.event.Metadata["approved_trade"].(models.ApprovedTrade)
			if !ok {
				continue
			}
			if _, err := tx.Exec(q, approved.Signal.ID, true, nil, marshalPayload(approved.RiskCheckMetadata), approved.ApprovedAt, rec.ingestedAt); err != nil {
				return err
			}
		case models.EventSignalRejected:
			rejected, ok := rec.event.Metadata["rejected_trade"].(models.RejectedTrade)
			if !ok {
				continue
			}
			if _, err := tx.Exec(q, rejected.Signal.ID, false, rejected.RejectionReason, marshalPayload(rejected.RiskCheckMetadata), rejected.RejectedAt, rec.ingestedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertOrderEvents(tx *sqlx.Tx, recs []bufferedRecord) error {
	const q = `INSERT INTO order_events (order_id, signal_id, status, broker_order_id, filled_qty, filled_price, rejection_reason, event_timestamp, ingested_at) VALUES (?,?,?,?,?,?,?,?,?)`
	for _, rec := range recs {
		order, ok := rec.event.Metadata["order_event"].(models.OrderEvent)
		if !ok {
			continue
		}
		var filledPrice *string
		if order.FilledPrice != nil {
			s := order.FilledPrice.String()
			filledPrice = &s
		}
		if _, err := tx.Exec(q, order.OrderID, order.SignalID, string(order.Status), order.BrokerOrderID, order.FilledQty, filledPrice, order.RejectionReason, order.Timestamp, rec.ingestedAt); err != nil {
			return err
		}
	}
	return nil
}

func insertTradeIdeas(tx *sqlx.Tx, recs []bufferedRecord) error {
	const q = `INSERT INTO ai_trade_ideas (idea_id, description, rationale, confidence, approved, created_at, ingested_at) VALUES (?,?,?,?,?,?,?)`
	for _, rec := range recs {
		idea, ok := rec.event.Metadata["trade_idea"].(models.TradeIdea)
		if !ok {
			continue
		}
		var approved *bool
		if rec.event.Kind == models.EventTradeIdeaApproved {
			t := true
			approved = &t
		} else if rec.event.Kind == models.EventTradeIdeaRejected {
			f := false
			approved = &f
		}
		if _, err := tx.Exec(q, idea.ID, idea.Description, idea.Rationale, idea.Confidence, approved, idea.CreatedAt, rec.ingestedAt); err != nil {
			return err
		}
	}
	return nil
}
