// Package domain declares the historical backfill model: one request fans
// out into tiered resource index jobs for a whole season
package domain

import (
	"time"

	"sportsource/internal/core/resource"
)

// BackfillRequest asks for one provider season to be sourced end to end.
// Delays override the per-tier deferral; absent keys fall back to config,
// then to the built-in stagger.
type BackfillRequest struct {
	Provider      string
	Sport         string
	SeasonYear    int
	Force         bool
	CorrelationID string
	Delays        map[resource.DocumentType]time.Duration
}

// BackfillResult reports what a schedule call did. Replayed means the
// season was already scheduled and the original correlation id is returned.
type BackfillResult struct {
	CorrelationID string `json:"correlationId"`
	JobsPersisted int    `json:"jobsPersisted"`
	Scheduled     int    `json:"scheduled"`
	Replayed      bool   `json:"replayed"`
}

// Tier is one rung of the backfill ladder. TierIndex fixes both the
// ordinal suffix and the dispatch order.
type Tier struct {
	Index        int
	DocumentType resource.DocumentType
	Shape        resource.Shape
	URI          string
	Delay        time.Duration
}

// ResourceIndexJob is one persisted sourcing assignment. Rows are never
// deleted; re-schedules insert fresh rows with higher ordinals.
type ResourceIndexJob struct {
	ID           string
	Ordinal      int64
	Name         string
	Provider     string
	Sport        string
	DocumentType string
	Shape        string
	URI          string
	URLHash      string
	SeasonYear   int
	IsEnabled    bool

	LastAccessedUTC  *time.Time
	LastCompletedUTC *time.Time
	LastPageIndex    int
	TotalPageCount   int

	CreatedBy   string
	CreatedUTC  time.Time
	ModifiedBy  string
	ModifiedUTC time.Time
}
