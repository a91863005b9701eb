// Package audit records sourcing telemetry to ClickHouse. The sink is
// strictly best-effort: an unavailable warehouse never fails the pipeline.
package audit

import (
	"context"
	"time"

	"sportsource/internal/platform/logger"
	"sportsource/internal/platform/store"
)

// Table is the warehouse destination for sourcing telemetry
const Table = "sourcing_audit"

var columns = []string{
	"occurred_utc", "correlation_id", "operation", "provider", "sport",
	"document_type", "uri", "outcome", "pages", "items", "duration_ms",
}

// Entry is one sourcing observation
type Entry struct {
	OccurredUTC   time.Time
	CorrelationID string
	Operation     string // dispatch, crawl, process, reprocess
	Provider      string
	Sport         string
	DocumentType  string
	URI           string
	Outcome       string // ok, absent, error
	Pages         int
	Items         int
	Duration      time.Duration
}

// Sink writes entries to the warehouse
type Sink struct {
	ch  store.Clickhouse
	log logger.Logger
}

// NewSink builds a sink; a nil warehouse disables recording
func NewSink(ch store.Clickhouse, log logger.Logger) *Sink {
	return &Sink{ch: ch, log: log.With().Str("component", "audit").Logger()}
}

// Record writes entries, logging and swallowing any warehouse error
func (s *Sink) Record(ctx context.Context, entries ...Entry) {
	if s == nil || s.ch == nil || len(entries) == 0 {
		return
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		ts := e.OccurredUTC
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		rows = append(rows, []any{
			ts, e.CorrelationID, e.Operation, e.Provider, e.Sport,
			e.DocumentType, e.URI, e.Outcome,
			int32(e.Pages), int32(e.Items), e.Duration.Milliseconds(),
		})
	}
	if err := s.ch.Insert(ctx, Table, columns, rows); err != nil {
		s.log.Warn().Err(err).Int("rows", len(rows)).Msg("audit insert failed")
	}
}
