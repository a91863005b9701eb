package domain

import "context"

// Repo persists resource index jobs and their crawl bookkeeping
type Repo interface {
	// SeasonCorrelation returns the correlation id stamped on an existing
	// season-tier job for (provider, sport, year), if one exists
	SeasonCorrelation(ctx context.Context, provider, sport string, year int) (string, bool, error)

	// InsertJob writes one job row
	InsertJob(ctx context.Context, job ResourceIndexJob) error

	// RecordPage updates crawl bookkeeping after one index page
	RecordPage(ctx context.Context, jobID string, pageIndex, pageCount, items int) error

	// MarkCompleted stamps a finished crawl
	MarkCompleted(ctx context.Context, jobID string) error
}

// Ports is the outward surface of the historical service
type Ports interface {
	ScheduleBackfill(ctx context.Context, req BackfillRequest) (BackfillResult, error)
}
