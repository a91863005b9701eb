// Package jobs is a postgres-backed background job queue with immediate and
// deferred enqueue plus a lease-based worker loop
package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Job is one unit of queued work
type Job struct {
	ID            string
	Kind          string
	Payload       json.RawMessage
	CorrelationID string
	RunAt         time.Time
	Attempts      int
	MaxAttempts   int
}

// Queue enqueues work; Schedule defers it by delay
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload any, correlationID string) (string, error)
	Schedule(ctx context.Context, kind string, payload any, correlationID string, delay time.Duration) (string, error)
}

// DeadRequeuer returns parked jobs to the pending state
type DeadRequeuer interface {
	RequeueDead(ctx context.Context, kind string, limit int) (int, error)
}

// Store is the persistence surface the worker drains
type Store interface {
	// LeaseDue claims up to limit due jobs, bumping their attempt counter
	LeaseDue(ctx context.Context, limit int, leaseFor time.Duration) ([]Job, error)

	// Complete removes a finished job
	Complete(ctx context.Context, id string) error

	// Fail releases a job after a handler error: retry after backoff while
	// attempts remain, dead otherwise
	Fail(ctx context.Context, id string, attempts, maxAttempts int, handlerErr error, retryIn time.Duration) error
}

// Handler processes one job kind
type Handler func(ctx context.Context, job Job) error
