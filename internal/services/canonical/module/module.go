// Package module wires the canonical document-processing service
package module

import (
	"context"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/core/resource"
	"sportsource/internal/eventing"
	"sportsource/internal/modkit"
	"sportsource/internal/services/canonical/domain"
	"sportsource/internal/services/canonical/repo"
	"sportsource/internal/services/canonical/service"
)

// Ports defines the canonical module ports
type Ports struct {
	Processor domain.Ports
}

// Module implements the canonical module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the canonical module. Both sports route to the same
// processor implementations; the tuple key keeps future providers from
// silently reusing them.
func New(deps modkit.Deps, direct eventing.DirectPublisher) *Module {
	reg := service.NewRegistry()
	for _, sport := range []resource.Sport{resource.SportFootballNCAA, resource.SportFootballNFL} {
		reg.Register(resource.ProviderESPN, sport, resource.DocSeason, service.SeasonProcessor{}).
			Register(resource.ProviderESPN, sport, resource.DocVenue, service.VenueProcessor{}).
			Register(resource.ProviderESPN, sport, resource.DocFranchise, service.FranchiseProcessor{}).
			Register(resource.ProviderESPN, sport, resource.DocTeamSeason, service.TeamSeasonProcessor{})
	}

	client := espn.New(espn.OptionsFromConfig(deps.Cfg), deps.Log)
	svc := service.New(deps.PG, repo.NewPG(), leafFetcher{c: client}, reg)
	if direct != nil {
		svc.WithDirect(direct)
	}

	m := &Module{deps: deps}
	m.ports = Ports{Processor: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "canonical" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// leafFetcher adapts the provider client to the canonical fetch port.
// Leaf identity strips the querystring so cache keys stay stable across
// pagination params.
type leafFetcher struct {
	c *espn.Client
}

func (f leafFetcher) Fetch(ctx context.Context, uri string, bypassCache bool) ([]byte, bool, error) {
	r, err := f.c.GetJSON(ctx, uri, espn.FetchOpts{BypassCache: bypassCache, StripQuery: true})
	if err != nil {
		return nil, false, err
	}
	if r.Outcome == espn.OutcomeAbsent {
		return nil, false, nil
	}
	return r.Body, true, nil
}
