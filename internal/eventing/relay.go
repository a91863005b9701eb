package eventing

import (
	"context"
	"time"

	"sportsource/internal/modkit/repokit"
	"sportsource/internal/platform/logger"
)

// RelayOptions tunes the outbox relay loop
type RelayOptions struct {
	Interval  time.Duration
	BatchSize int
	LeaseFor  time.Duration
}

// Relay drains committed outbox rows to the broker. One relay per process
// is enough; the lease keeps concurrent replicas from double-publishing
// within the lease window.
type Relay struct {
	pg     repokit.TxRunner
	direct DirectPublisher
	opt    RelayOptions
	log    logger.Logger
}

// NewRelay builds the relay loop
func NewRelay(pg repokit.TxRunner, direct DirectPublisher, opt RelayOptions, log logger.Logger) *Relay {
	if opt.Interval <= 0 {
		opt.Interval = 2 * time.Second
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = 100
	}
	if opt.LeaseFor <= 0 {
		opt.LeaseFor = 30 * time.Second
	}
	return &Relay{pg: pg, direct: direct, opt: opt, log: log.With().Str("component", "outbox-relay").Logger()}
}

// Run loops until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	tick := time.NewTicker(r.opt.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := r.drainOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("relay pass failed")
			}
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) error {
	repo := OutboxBinder().Bind(r.pg)
	envs, err := repo.LeaseUnpublished(ctx, r.opt.BatchSize, r.opt.LeaseFor)
	if err != nil {
		return err
	}
	if len(envs) == 0 {
		return nil
	}

	published := make([]string, 0, len(envs))
	for _, env := range envs {
		if err := r.direct.PublishDirect(ctx, env); err != nil {
			// leave the row leased; it becomes eligible again when the
			// lease expires
			r.log.Warn().Err(err).Str("id", env.ID).Str("kind", env.Kind).Msg("publish failed")
			continue
		}
		published = append(published, env.ID)
	}
	if len(published) > 0 {
		if err := repo.MarkPublished(ctx, published); err != nil {
			return err
		}
		r.log.Debug().Int("published", len(published)).Int("leased", len(envs)).Msg("outbox drained")
	}
	return nil
}
