package audit

import (
	"fmt"
	"time"
)

// AuditRecord is a row from the audit_events table.
type AuditRecord struct {
	ID             int64     `db:"id"`
	EventID        string    `db:"event_id"`
	EventType      string    `db:"event_type"`
	Payload        string    `db:"payload"`
	EventTimestamp time.Time `db:"event_timestamp"`
	IngestedAt     time.Time `db:"ingested_at"`
}

// GetAuditTrail returns up to limit audit_events rows, optionally
// filtered by event type and/or a timestamp range, most recent first.
func (s *Store) GetAuditTrail(eventType string, from, to *time.Time, limit int) ([]AuditRecord, error) {
	query := "SELECT id, event_id, event_type, payload, event_timestamp, ingested_at FROM audit_events WHERE 1=1"
	var args []any

	if eventType != "" {
		query += " AND event_type = ?"
		args = append(args, eventType)
	}
	if from != nil {
		query += " AND event_timestamp >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND event_timestamp <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY event_timestamp DESC LIMIT ?"
	args = append(args, limit)

	var records []AuditRecord
	if err := s.Select(&records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	return records, nil
}

// PerformanceSummary aggregates activity for a reporting period.
type PerformanceSummary struct {
	SignalsBySource      map[string]int `json:"signals_by_source"`
	RiskDecisionsByOutcome map[string]int `json:"risk_decisions_by_outcome"`
	OrdersByStatus       map[string]int `json:"orders_by_status"`
}

// GetPerformanceSummary aggregates signal counts by source, risk
// decisions by outcome, and order events by terminal status within
// [from, to].
func (s *Store) GetPerformanceSummary(from, to time.Time) (PerformanceSummary, error) {
	summary := PerformanceSummary{
		SignalsBySource:        make(map[string]int),
		RiskDecisionsByOutcome: make(map[string]int),
		OrdersByStatus:         make(map[string]int),
	}

	type sourceCount struct {
		Source string `db:"source"`
		Count  int    `db:"count"`
	}
	var sources []sourceCount
	if err := s.Select(&sources, `SELECT source, COUNT(*) as count FROM trade_signals WHERE created_at BETWEEN ? AND ? GROUP BY source`, from, to); err != nil {
		return summary, fmt.Errorf("failed to aggregate signals by source: %w", err)
	}
	for _, sc := range sources {
		summary.SignalsBySource[sc.Source] = sc.Count
	}

	type approvedCount struct {
		Approved bool `db:"approved"`
		Count    int  `db:"count"`
	}
	var decisions []approvedCount
	if err := s.Select(&decisions, `SELECT approved, COUNT(*) as count FROM risk_decisions WHERE decided_at BETWEEN ? AND ? GROUP BY approved`, from, to); err != nil {
		return summary, fmt.Errorf("failed to aggregate risk decisions: %w", err)
	}
	for _, dc := range decisions {
		outcome := "rejected"
		if dc.Approved {
			outcome = "approved"
		}
		summary.RiskDecisionsByOutcome[outcome] = dc.Count
	}

	type statusCount struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	var statuses []statusCount
	if err := s.Select(&statuses, `SELECT status, COUNT(*) as count FROM order_events WHERE event_timestamp BETWEEN ? AND ? GROUP BY status`, from, to); err != nil {
		return summary, fmt.Errorf("failed to aggregate order events: %w", err)
	}
	for _, stc := range statuses {
		summary.OrdersByStatus[stc.Status] = stc.Count
	}

	return summary, nil
}
