package domain

import (
	"context"

	"sportsource/internal/eventing"
)

// StorageRepo is the canonical persistence surface, bound to one queryer so
// a whole document processes inside a single transaction. Lookups return
// (nil, nil) when no row matches; existence is decided by the external id
// alone, never by upstream new/updated hints.
type StorageRepo interface {
	VenueByExternalID(ctx context.Context, provider, value string) (*Venue, error)
	InsertVenue(ctx context.Context, v *Venue) error
	UpdateVenue(ctx context.Context, v *Venue, images []Image) error

	FranchiseByExternalID(ctx context.Context, provider, value string) (*Franchise, error)
	InsertFranchise(ctx context.Context, f *Franchise) error
	UpdateFranchise(ctx context.Context, f *Franchise, images []Image) error

	TeamSeasonByFranchiseYear(ctx context.Context, franchiseID string, year int) (*TeamSeason, error)
	InsertTeamSeason(ctx context.Context, t *TeamSeason) error
	UpdateTeamSeason(ctx context.Context, t *TeamSeason, images []Image) error
}

// Fetcher retrieves one provider payload; absence is reported, not an error
type Fetcher interface {
	Fetch(ctx context.Context, uri string, bypassCache bool) (body []byte, found bool, err error)
}

// Document is one sourced payload handed to a processor together with the
// command that requested it
type Document struct {
	Cmd  eventing.ProcessResourceIndexItemCommand
	Body []byte
}

// Processor applies one provider document to canonical storage. repo and
// bus are bound to the same transaction by the caller.
type Processor interface {
	Process(ctx context.Context, repo StorageRepo, bus eventing.Publisher, doc Document) error
}

// Ports is the outward surface of the canonical service
type Ports interface {
	// HandleItem sources the document named by cmd and routes it to the
	// registered processor inside one transaction
	HandleItem(ctx context.Context, cmd eventing.ProcessResourceIndexItemCommand) error
}
