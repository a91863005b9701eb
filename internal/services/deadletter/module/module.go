// Package module wires the dead-letter reprocessing service
package module

import (
	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit"
	"sportsource/internal/services/deadletter/domain"
	"sportsource/internal/services/deadletter/service"
)

// Ports defines the dead-letter module ports
type Ports struct {
	Reprocessor domain.Ports
}

// Module implements the dead-letter module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the dead-letter module. Missing broker credentials fail
// construction; there is no degraded mode for a maintenance surface.
func New(deps modkit.Deps) *Module {
	broker, err := eventing.NewBroker(eventing.BrokerFromConfig(deps.Cfg), deps.Log)
	if err != nil {
		panic(err)
	}
	// redelivery is always direct; no ambient transaction exists here
	bus := eventing.NewBus(nil, broker)
	svc := service.New(broker, bus, service.FromConfig(deps.Cfg))
	if deps.PG != nil {
		// pipeline-owned kinds re-enter through the job queue the worker
		// drains; parked job rows get swept the same way
		svc.WithQueue(jobs.QueueBinder().Bind(deps.PG)).
			WithDeadJobs(jobs.RequeueBinder().Bind(deps.PG))
	}

	m := &Module{deps: deps}
	m.ports = Ports{Reprocessor: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "deadletter" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
