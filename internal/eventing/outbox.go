package eventing

import (
	"context"
	"time"

	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/store"
)

// OutboxRepo persists envelopes awaiting relay
type OutboxRepo interface {
	OutboxWriter

	// LeaseUnpublished claims up to limit committed rows for relay
	LeaseUnpublished(ctx context.Context, limit int, leaseFor time.Duration) ([]Envelope, error)

	// MarkPublished stamps rows delivered to the broker
	MarkPublished(ctx context.Context, ids []string) error
}

// OutboxBinder binds the outbox repo to a queryer (usually a tx)
func OutboxBinder() repokit.Binder[OutboxRepo] {
	return repokit.BindFunc[OutboxRepo](func(q repokit.Queryer) OutboxRepo {
		return &outboxPG{q: q}
	})
}

type outboxPG struct {
	q repokit.Queryer
}

func (r *outboxPG) Append(ctx context.Context, env Envelope) error {
	const sql = `
		INSERT INTO outbox (id, kind, correlation_id, causation_id, attempt_count, occurred_utc, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, sql,
		env.ID, env.Kind, env.CorrelationID, nullable(env.CausationID),
		env.AttemptCount, env.OccurredUTC, []byte(env.Payload),
	)
	if err != nil {
		return perr.FromPostgres(err, "outbox append")
	}
	return nil
}

func (r *outboxPG) LeaseUnpublished(ctx context.Context, limit int, leaseFor time.Duration) ([]Envelope, error) {
	const sql = `
		UPDATE outbox SET leased_until = now() + $2::interval
		WHERE id IN (
			SELECT id FROM outbox
			WHERE published_utc IS NULL
			  AND (leased_until IS NULL OR leased_until < now())
			ORDER BY occurred_utc
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, correlation_id, COALESCE(causation_id, ''), attempt_count, occurred_utc, payload
	`
	return store.Many(ctx, r.q, scanEnvelope, sql, limit, leaseFor.String())
}

func (r *outboxPG) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const sql = `UPDATE outbox SET published_utc = now() WHERE id = ANY($1)`
	if _, err := r.q.Exec(ctx, sql, ids); err != nil {
		return perr.FromPostgres(err, "outbox mark published")
	}
	return nil
}

func scanEnvelope(row store.Row) (Envelope, error) {
	var env Envelope
	var payload []byte
	if err := row.Scan(
		&env.ID, &env.Kind, &env.CorrelationID, &env.CausationID,
		&env.AttemptCount, &env.OccurredUTC, &payload,
	); err != nil {
		return Envelope{}, err
	}
	env.Payload = payload
	return env, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
