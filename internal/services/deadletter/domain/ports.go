// Package domain declares the dead-letter reprocessing surface
package domain

import (
	"context"

	"sportsource/internal/eventing"
)

// ReprocessCommand asks for up to Count messages to be peeked off a
// dead-letter queue and re-published. The peek never removes messages; the
// consumer acks them on successful redelivery.
type ReprocessCommand struct {
	Queue         string `json:"queue" validate:"required"`
	Count         int    `json:"count" validate:"min=1"`
	ResetAttempts bool   `json:"resetAttempts"`
}

// Result summarizes one reprocess run. Errors holds one entry per message
// that could not be requeued; partial failure never aborts the batch.
type Result struct {
	Requested int      `json:"requested"`
	Requeued  int      `json:"requeued"`
	Errors    []string `json:"errors,omitempty"`
}

// RequeueDeadCommand asks for parked background jobs to be returned to the
// pending state. Kind narrows the sweep; empty matches every kind.
type RequeueDeadCommand struct {
	Kind  string `json:"kind"`
	Count int    `json:"count" validate:"min=1"`
}

// RequeueResult reports how many parked jobs went back to pending
type RequeueResult struct {
	Requeued int `json:"requeued"`
}

// Peeker reads messages off a queue without consuming them
type Peeker interface {
	Peek(ctx context.Context, queue string, count int) ([]eventing.RawMessage, error)
}

// DeadJobs sweeps parked rows out of the background job table
type DeadJobs interface {
	RequeueDead(ctx context.Context, kind string, limit int) (int, error)
}

// Ports is the outward surface of the dead-letter service
type Ports interface {
	Reprocess(ctx context.Context, cmd ReprocessCommand) (Result, error)
	RequeueDead(ctx context.Context, cmd RequeueDeadCommand) (RequeueResult, error)
}
