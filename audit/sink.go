package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

const (
	bufferCapacity = 100
	flushInterval  = 30 * time.Second
)

type bufferedRecord struct {
	event      models.DomainEvent
	ingestedAt time.Time
}

// Sink is the buffered, append-only audit writer. It subscribes to an
// events.Bus and groups buffered records by logical stream on flush,
// performing one bulk insert per stream. The buffer is bounded only by
// size; producers never block and records are never dropped.
type Sink struct {
	store *Store

	mu     sync.Mutex
	buffer []bufferedRecord

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSink creates a sink backed by store and subscribes it to bus.
func NewSink(store *Store, bus *events.Bus) *Sink {
	s := &Sink{
		store:  store,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if bus != nil {
		bus.Subscribe(s.handle)
	}
	go s.flushLoop()
	return s
}

func (s *Sink) handle(e models.DomainEvent) {
	s.mu.Lock()
	s.buffer = append(s.buffer, bufferedRecord{event: e, ingestedAt: time.Now().UTC()})
	full := len(s.buffer) >= bufferCapacity
	s.mu.Unlock()

	if full {
		if err := s.Flush(context.Background()); err != nil {
			log.Error().Err(err).Msg("audit buffer flush failed")
		}
	}
}

func (s *Sink) flushLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(context.Background()); err != nil {
				log.Error().Err(err).Msg("periodic audit flush failed")
			}
		case <-s.stopCh:
			return
		}
	}
}

// Flush drains the buffer and bulk-inserts each logical stream in its
// own transaction. Records that fail to insert are never dropped; they
// stay buffered for the next attempt.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	streams := make(map[string][]bufferedRecord)
	for _, rec := range pending {
		stream := streamFor(rec.event.Kind)
		streams[stream] = append(streams[stream], rec)
	}

	var firstErr error
	var failed []bufferedRecord
	for stream, recs := range streams {
		if err := s.bulkInsert(ctx, stream, recs); err != nil {
			log.Error().Err(err).Str("stream", stream).Msg("bulk insert failed, records stay buffered")
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, recs...)
		}
	}

	if len(failed) > 0 {
		s.mu.Lock()
		s.buffer = append(failed, s.buffer...)
		s.mu.Unlock()
	}

	return firstErr
}

// Shutdown stops the periodic flush loop and forces one final flush.
func (s *Sink) Shutdown(ctx context.Context) error {
	close(s.stopCh)
	<-s.doneCh
	return s.Flush(ctx)
}

func streamFor(kind models.EventKind) string {
	switch kind {
	case models.EventSignalGenerated:
		return "trade_signals"
	case models.EventSignalApproved, models.EventSignalRejected:
		return "risk_decisions"
	case models.EventOrderSubmitted, models.EventOrderFilled, models.EventOrderCancelled, models.EventOrderRejected:
		return "order_events"
	case models.EventTradeIdeaGenerated, models.EventTradeIdeaApproved, models.EventTradeIdeaRejected:
		return "ai_trade_ideas"
	default:
		return "audit_events"
	}
}

func (s *Sink) bulkInsert(ctx context.Context, stream string, recs []bufferedRecord) error {
	tx, err := s.store.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch stream {
	case "trade_signals":
		err = insertTradeSignals(tx, recs)
	case "risk_decisions":
		err = insertRiskDecisions(tx, recs)
	case "order_events":
		err = insertOrderEvents(tx, recs)
	case "ai_trade_ideas":
		err = insertTradeIdeas(tx, recs)
	default:
		err = insertGenericEvents(tx, recs)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func marshalPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
