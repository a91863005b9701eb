package jobs

import (
	"context"
	"encoding/json"
	"time"

	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"

	"github.com/google/uuid"
)

const defaultMaxAttempts = 5

// QueueBinder binds the pg queue to a queryer, so enqueues can ride the
// caller's transaction
func QueueBinder() repokit.Binder[Queue] {
	return repokit.BindFunc[Queue](func(q repokit.Queryer) Queue {
		return &pgQueue{q: q}
	})
}

// RequeueBinder binds the dead-job sweeper to a queryer
func RequeueBinder() repokit.Binder[DeadRequeuer] {
	return repokit.BindFunc[DeadRequeuer](func(q repokit.Queryer) DeadRequeuer {
		return &pgQueue{q: q}
	})
}

type pgQueue struct {
	q repokit.Queryer
}

func (p *pgQueue) Enqueue(ctx context.Context, kind string, payload any, correlationID string) (string, error) {
	return p.insert(ctx, kind, payload, correlationID, 0)
}

func (p *pgQueue) Schedule(
	ctx context.Context,
	kind string,
	payload any,
	correlationID string,
	delay time.Duration,
) (string, error) {
	if delay < 0 {
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "jobs: negative delay %s", delay)
	}
	return p.insert(ctx, kind, payload, correlationID, delay)
}

// RequeueDead returns up to limit dead jobs to the pending state with one
// attempt left, so a repeated failure parks them again instead of looping
func (p *pgQueue) RequeueDead(ctx context.Context, kind string, limit int) (int, error) {
	if limit <= 0 {
		return 0, perr.Newf(perr.ErrorCodeInvalidArgument, "jobs: requeue limit %d", limit)
	}
	const sql = `
		UPDATE background_jobs
		SET status = 'pending', attempts = GREATEST(max_attempts - 1, 0),
		    run_at = now(), locked_until = NULL, last_error = NULL
		WHERE id IN (
			SELECT id FROM background_jobs
			WHERE status = 'dead' AND ($1 = '' OR kind = $1)
			ORDER BY run_at
			LIMIT $2
		)
	`
	tag, err := p.q.Exec(ctx, sql, kind, limit)
	if err != nil {
		return 0, perr.FromPostgresf(err, "jobs: requeue dead %q", kind)
	}
	return int(tag.RowsAffected()), nil
}

func (p *pgQueue) insert(
	ctx context.Context,
	kind string,
	payload any,
	correlationID string,
	delay time.Duration,
) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "jobs: marshal %s payload", kind)
	}
	id := uuid.NewString()
	const sql = `
		INSERT INTO background_jobs (id, kind, payload, correlation_id, run_at, attempts, max_attempts, status)
		VALUES ($1, $2, $3, $4, now() + $5::interval, 0, $6, 'pending')
	`
	if _, err := p.q.Exec(ctx, sql, id, kind, b, correlationID, delay.String(), defaultMaxAttempts); err != nil {
		return "", perr.FromPostgresf(err, "jobs: enqueue %s", kind)
	}
	return id, nil
}
