// Package repo provides Postgres bindings for resource index jobs
package repo

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/store"
	"sportsource/internal/services/historical/domain"
)

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for the historical repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

// SeasonCorrelation finds the correlation id an earlier schedule stamped on
// the season-tier job, newest row winning
func (r *queries) SeasonCorrelation(ctx context.Context, provider, sport string, year int) (string, bool, error) {
	corr, err := store.One(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, `
		SELECT created_by
		FROM resource_index_jobs
		WHERE provider = $1 AND sport = $2 AND season_year = $3
		  AND document_type = 'season' AND is_enabled
		ORDER BY ordinal DESC
		LIMIT 1
	`, provider, sport, year)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", false, nil
		}
		return "", false, perr.FromPostgresf(err, "season correlation %s/%s/%d", provider, sport, year)
	}
	return corr, true, nil
}

// InsertJob writes one job row. The unique index on ordinal is the backstop
// against two schedulers minting the same ordinal.
func (r *queries) InsertJob(ctx context.Context, job domain.ResourceIndexJob) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO resource_index_jobs
			(id, ordinal, name, provider, sport, document_type, shape, uri,
			 url_hash, season_year, is_enabled, last_page_index, total_page_count,
			 created_by, created_utc, modified_by, modified_utc)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		job.ID, job.Ordinal, job.Name, job.Provider, job.Sport,
		job.DocumentType, job.Shape, job.URI, job.URLHash, job.SeasonYear,
		job.IsEnabled, job.LastPageIndex, job.TotalPageCount,
		job.CreatedBy, job.CreatedUTC, job.ModifiedBy, job.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "insert resource index job %s", job.Name)
	}
	return nil
}

// RecordPage updates crawl bookkeeping after one index page
func (r *queries) RecordPage(ctx context.Context, jobID string, pageIndex, pageCount, _ int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE resource_index_jobs
		SET last_accessed_utc = now(), last_page_index = $2,
		    total_page_count = $3, modified_utc = now()
		WHERE id = $1
	`, jobID, pageIndex, pageCount)
	if err != nil {
		return perr.FromPostgresf(err, "record page for job %s", jobID)
	}
	return nil
}

// MarkCompleted stamps a finished crawl
func (r *queries) MarkCompleted(ctx context.Context, jobID string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE resource_index_jobs
		SET last_completed_utc = now(), modified_utc = now()
		WHERE id = $1
	`, jobID)
	if err != nil {
		return perr.FromPostgresf(err, "mark job %s completed", jobID)
	}
	return nil
}

// SeasonLockKey derives the advisory lock key for one season's schedule
func SeasonLockKey(provider, sport string, year int) int64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", provider, sport, year)))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// AcquireSeasonLock takes the tx-scoped advisory lock for a season. It
// blocks until the peer scheduler's transaction finishes.
func AcquireSeasonLock(ctx context.Context, q repokit.Queryer, provider, sport string, year int) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, SeasonLockKey(provider, sport, year))
	if err != nil {
		return perr.FromPostgresf(err, "advisory lock %s/%s/%d", provider, sport, year)
	}
	return nil
}
