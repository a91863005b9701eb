package jobs

import (
	"context"
	"time"

	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/store"
)

// NewPGStore builds the worker's persistence surface over pg
func NewPGStore(pg repokit.TxRunner) Store {
	return &pgStore{pg: pg}
}

type pgStore struct {
	pg repokit.TxRunner
}

func (s *pgStore) LeaseDue(ctx context.Context, limit int, leaseFor time.Duration) ([]Job, error) {
	const sql = `
		UPDATE background_jobs
		SET locked_until = now() + $2::interval,
		    attempts     = attempts + 1
		WHERE id IN (
			SELECT id FROM background_jobs
			WHERE status = 'pending'
			  AND run_at <= now()
			  AND (locked_until IS NULL OR locked_until < now())
			ORDER BY run_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, payload, correlation_id, run_at, attempts, max_attempts
	`
	return store.Many(ctx, s.pg, scanJob, sql, limit, leaseFor.String())
}

func (s *pgStore) Complete(ctx context.Context, id string) error {
	const sql = `UPDATE background_jobs SET status = 'done', locked_until = NULL, completed_utc = now() WHERE id = $1`
	if _, err := s.pg.Exec(ctx, sql, id); err != nil {
		return perr.FromPostgres(err, "jobs: complete")
	}
	return nil
}

func (s *pgStore) Fail(
	ctx context.Context,
	id string,
	attempts, maxAttempts int,
	handlerErr error,
	retryIn time.Duration,
) error {
	if attempts >= maxAttempts {
		const sql = `
			UPDATE background_jobs
			SET status = 'dead', locked_until = NULL, last_error = $2
			WHERE id = $1
		`
		if _, err := s.pg.Exec(ctx, sql, id, handlerErr.Error()); err != nil {
			return perr.FromPostgres(err, "jobs: mark dead")
		}
		return nil
	}
	const sql = `
		UPDATE background_jobs
		SET locked_until = NULL, run_at = now() + $2::interval, last_error = $3
		WHERE id = $1
	`
	if _, err := s.pg.Exec(ctx, sql, id, retryIn.String(), handlerErr.Error()); err != nil {
		return perr.FromPostgres(err, "jobs: release for retry")
	}
	return nil
}

func scanJob(row store.Row) (Job, error) {
	var j Job
	var payload []byte
	if err := row.Scan(&j.ID, &j.Kind, &payload, &j.CorrelationID, &j.RunAt, &j.Attempts, &j.MaxAttempts); err != nil {
		return Job{}, err
	}
	j.Payload = payload
	return j, nil
}
