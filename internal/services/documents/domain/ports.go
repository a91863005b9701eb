// Package domain declares the ports and result types for document dispatch
package domain

import (
	"context"

	"sportsource/internal/eventing"
)

// Ports is the outward surface of the documents service
type Ports interface {
	// HandleRequested classifies the requested URI and either enqueues a
	// single leaf command or crawls the full collection
	HandleRequested(ctx context.Context, req eventing.DocumentRequested) (DispatchResult, error)
}

// Fetcher retrieves one provider payload. found reports whether the
// provider answered with a document at all; absence is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, uri string, bypassCache bool) (body []byte, found bool, err error)
}

// ItemSink accepts leaf commands for asynchronous processing
type ItemSink interface {
	EnqueueItem(ctx context.Context, cmd eventing.ProcessResourceIndexItemCommand) error
}

// Bookkeeper records crawl progress against a scheduled backfill row.
// Implementations must tolerate redelivery of the same page.
type Bookkeeper interface {
	RecordPage(ctx context.Context, jobID string, pageIndex, pageCount, items int) error
	MarkCompleted(ctx context.Context, jobID string) error
}

// DispatchResult summarizes one handled request
type DispatchResult struct {
	Shape string
	Pages int
	Items int
}
