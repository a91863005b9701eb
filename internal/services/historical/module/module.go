// Package module wires the historical backfill scheduler
package module

import (
	"sportsource/internal/jobs"
	"sportsource/internal/modkit"
	"sportsource/internal/modkit/repokit"
	"sportsource/internal/services/historical/domain"
	"sportsource/internal/services/historical/repo"
	"sportsource/internal/services/historical/service"
)

// Ports defines the historical module ports
type Ports struct {
	Scheduler domain.Ports

	// Books serves the crawler's page bookkeeping against the same rows
	// the scheduler creates
	Books domain.Repo
}

// Module implements the historical module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the historical module
func New(deps modkit.Deps) *Module {
	binder := repo.NewPG()
	queue := repokit.MustBind(jobs.QueueBinder(), deps.PG)
	svc := service.New(deps.PG, binder, queue, service.FromConfig(deps.Cfg))

	m := &Module{deps: deps}
	m.ports = Ports{Scheduler: svc, Books: repokit.MustBind(binder, deps.PG)}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "historical" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
