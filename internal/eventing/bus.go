package eventing

import (
	"context"

	perr "sportsource/internal/platform/errors"
)

// DeliveryMode selects how a publish reaches the broker
type DeliveryMode uint8

const (
	// DeliveryOutbox appends to the transactional outbox; the relay drains
	// committed rows to the broker after the ambient tx commits
	DeliveryOutbox DeliveryMode = iota

	// DeliveryDirect posts straight to the broker, for call-sites with no
	// ambient transaction (maintenance paths)
	DeliveryDirect
)

type modeKey struct{}

// WithDirect marks ctx so publishes bypass the outbox
func WithDirect(ctx context.Context) context.Context {
	return context.WithValue(ctx, modeKey{}, DeliveryDirect)
}

// ModeFrom reads the delivery mode from ctx; outbox is the default
func ModeFrom(ctx context.Context) DeliveryMode {
	if v, ok := ctx.Value(modeKey{}).(DeliveryMode); ok {
		return v
	}
	return DeliveryOutbox
}

// Publisher is the surface processors publish through
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	PublishBatch(ctx context.Context, envs []Envelope) error
}

// OutboxWriter appends envelopes inside the caller's transaction
type OutboxWriter interface {
	Append(ctx context.Context, env Envelope) error
}

// DirectPublisher posts an envelope to the broker immediately
type DirectPublisher interface {
	PublishDirect(ctx context.Context, env Envelope) error
}

// Bus routes publishes by the ctx-scoped delivery mode. Bind one per
// transaction so outbox appends share the caller's queryer.
type Bus struct {
	outbox OutboxWriter
	direct DirectPublisher
}

// NewBus builds a Bus; either seam may be nil when that mode is unused
func NewBus(outbox OutboxWriter, direct DirectPublisher) *Bus {
	return &Bus{outbox: outbox, direct: direct}
}

// Publish delivers one envelope in the ctx-selected mode
func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	switch ModeFrom(ctx) {
	case DeliveryDirect:
		if b.direct == nil {
			return perr.New(perr.ErrorCodeInvalidArgument, "eventing: direct publisher not configured")
		}
		return b.direct.PublishDirect(ctx, env)
	default:
		if b.outbox == nil {
			return perr.New(perr.ErrorCodeInvalidArgument, "eventing: outbox not configured")
		}
		return b.outbox.Append(ctx, env)
	}
}

// PublishBatch delivers envelopes in order; the first failure aborts
func (b *Bus) PublishBatch(ctx context.Context, envs []Envelope) error {
	for _, env := range envs {
		if err := b.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
