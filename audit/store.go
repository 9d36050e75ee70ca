// Package audit buffers every domain event emitted by the pipeline and
// flushes it, grouped by logical stream, into an append-only SQLite
// store.
package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Store wraps the sqlx connection backing the audit sink's six
// append-only tables.
type Store struct {
	*sqlx.DB
}

// NewStore opens (creating if necessary) the SQLite database at path and
// runs the audit schema migration.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	store := &Store{db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run audit migrations: %w", err)
	}
	log.Info().Str("path", path).Msg("audit store connected")
	return store, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL UNIQUE,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	event_timestamp DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type_ts ON audit_events(event_type, event_timestamp);

CREATE TABLE IF NOT EXISTS trade_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	signal_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty INTEGER NOT NULL,
	order_type TEXT NOT NULL,
	confidence REAL NOT NULL,
	source TEXT NOT NULL,
	strategy_name TEXT,
	created_at DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_signals_symbol_created ON trade_signals(symbol, created_at);

CREATE TABLE IF NOT EXISTS risk_decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	signal_id TEXT NOT NULL,
	approved INTEGER NOT NULL,
	rejection_reason TEXT,
	rule_outcomes TEXT NOT NULL,
	decided_at DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_risk_decisions_signal_id ON risk_decisions(signal_id);
CREATE INDEX IF NOT EXISTS idx_risk_decisions_approved_created ON risk_decisions(approved, decided_at);

CREATE TABLE IF NOT EXISTS order_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id TEXT NOT NULL,
	signal_id TEXT NOT NULL,
	status TEXT NOT NULL,
	broker_order_id TEXT,
	filled_qty INTEGER,
	filled_price REAL,
	rejection_reason TEXT,
	event_timestamp DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_events_signal_id ON order_events(signal_id);

CREATE TABLE IF NOT EXISTS ai_trade_ideas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	idea_id TEXT NOT NULL,
	description TEXT NOT NULL,
	rationale TEXT,
	confidence REAL NOT NULL,
	approved INTEGER,
	created_at DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_trade_ideas_created ON ai_trade_ideas(created_at);

CREATE TABLE IF NOT EXISTS performance_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metric_type TEXT NOT NULL,
	metric_value REAL NOT NULL,
	metric_timestamp DATETIME NOT NULL,
	ingested_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_performance_metrics_type_ts ON performance_metrics(metric_type, metric_timestamp);
`

func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	if err != nil {
		return fmt.Errorf("audit schema migration failed: %w", err)
	}
	return nil
}
