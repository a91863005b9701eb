// Package module wires the documents dispatch service
package module

import (
	"context"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit"
	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/services/documents/domain"
	"sportsource/internal/services/documents/service"
)

// Ports defines the documents module ports
type Ports struct {
	Dispatcher domain.Ports
}

// Module implements the documents module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the documents module, wiring the provider client and the
// job queue behind the service's ports
func New(deps modkit.Deps, books domain.Bookkeeper) *Module {
	client := espn.New(espn.OptionsFromConfig(deps.Cfg), deps.Log)
	svc := service.New(
		providerFetcher{c: client},
		queueSink{pg: deps.PG},
		service.FromConfig(deps.Cfg),
	)
	if books != nil {
		svc.WithBookkeeper(books)
	}

	m := &Module{deps: deps}
	m.ports = Ports{Dispatcher: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "documents" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// providerFetcher adapts the provider client to the dispatch fetch port
type providerFetcher struct {
	c *espn.Client
}

func (f providerFetcher) Fetch(ctx context.Context, uri string, bypassCache bool) ([]byte, bool, error) {
	r, err := f.c.GetJSON(ctx, uri, espn.FetchOpts{BypassCache: bypassCache})
	if err != nil {
		return nil, false, err
	}
	if r.Outcome == espn.OutcomeAbsent {
		return nil, false, nil
	}
	return r.Body, true, nil
}

// queueSink enqueues leaf commands on the background job queue
type queueSink struct {
	pg repokit.Queryer
}

func (s queueSink) EnqueueItem(ctx context.Context, cmd eventing.ProcessResourceIndexItemCommand) error {
	if s.pg == nil {
		return perr.New(perr.ErrorCodeInvalidArgument, "documents: no queue store configured")
	}
	q := jobs.QueueBinder().Bind(s.pg)
	_, err := q.Enqueue(ctx, eventing.KindProcessResourceItem, cmd, cmd.CorrelationID)
	return err
}
