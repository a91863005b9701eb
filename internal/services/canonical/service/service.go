// Package service sources leaf documents and applies them to canonical
// storage through the processor registry
package service

import (
	"context"

	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit/repokit"
	"sportsource/internal/platform/logger"
	"sportsource/internal/services/canonical/domain"
)

// Service handles item commands end to end: fetch, route, process. Each
// document runs inside one transaction so canonical writes and outbox
// appends commit together.
type Service struct {
	DB       repokit.TxRunner
	Binder   repokit.Binder[domain.StorageRepo]
	Fetch    domain.Fetcher
	Registry *Registry
	Direct   eventing.DirectPublisher // optional; nil disables direct mode
	Log      *logger.Logger
}

// New constructs the canonical service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	fetch domain.Fetcher,
	reg *Registry,
) *Service {
	if db == nil {
		panic("canonical.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("canonical.Service requires a non nil StorageRepo binder")
	}
	if fetch == nil {
		panic("canonical.Service requires a non nil Fetcher")
	}
	if reg == nil {
		panic("canonical.Service requires a non nil Registry")
	}
	return &Service{
		DB:       db,
		Binder:   binder,
		Fetch:    fetch,
		Registry: reg,
		Log:      logger.Named("canonical"),
	}
}

// WithDirect wires a direct publisher for ctx-scoped direct publishes
func (s *Service) WithDirect(d eventing.DirectPublisher) *Service {
	s.Direct = d
	return s
}

// HandleItem sources the document named by cmd and routes it to the
// registered processor. An absent document is a no-op, not a failure.
func (s *Service) HandleItem(ctx context.Context, cmd eventing.ProcessResourceIndexItemCommand) error {
	ctx = logger.WithMessage(ctx, cmd.CorrelationID, cmd.ID)

	// resolve before fetching so a routing gap costs no provider call
	proc, err := s.Registry.Resolve(cmd.Provider, cmd.Sport, cmd.DocumentType)
	if err != nil {
		return err
	}

	body, found, err := s.Fetch.Fetch(ctx, cmd.URI, cmd.BypassCache)
	if err != nil {
		return err
	}
	if !found {
		logger.C(ctx).Warn().Str("uri", cmd.URI).Msg("document absent upstream, skipping")
		return nil
	}

	doc := domain.Document{Cmd: cmd, Body: body}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.Binder.Bind(q)
		bus := eventing.NewBus(eventing.OutboxBinder().Bind(q), s.Direct)
		// worker-consumed kinds (image fetches, cascaded document requests)
		// go onto the job queue in this same transaction; entity events
		// stay on the outbox for external subscribers
		sink := jobs.QueueBinder().Bind(q)
		return proc.Process(ctx, repo, eventing.QueueRouted(bus, sink), doc)
	})
}
