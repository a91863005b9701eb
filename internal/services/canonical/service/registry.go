package service

import (
	"fmt"

	"sportsource/internal/core/resource"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/services/canonical/domain"
)

// Key routes one document stream to its processor
type Key struct {
	Provider     string
	Sport        string
	DocumentType string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Provider, k.Sport, k.DocumentType)
}

// Registry is the static processor routing table, built once at startup.
// A miss is a deployment gap and surfaces as a non-retryable error.
type Registry struct {
	procs map[Key]domain.Processor
}

// NewRegistry builds an empty routing table
func NewRegistry() *Registry {
	return &Registry{procs: map[Key]domain.Processor{}}
}

// Register wires a processor for one (provider, sport, documentType) tuple
func (r *Registry) Register(p resource.Provider, s resource.Sport, dt resource.DocumentType, proc domain.Processor) *Registry {
	r.procs[Key{Provider: string(p), Sport: string(s), DocumentType: string(dt)}] = proc
	return r
}

// Resolve returns the processor for the tuple or a configuration error
func (r *Registry) Resolve(provider, sport, documentType string) (domain.Processor, error) {
	k := Key{Provider: provider, Sport: sport, DocumentType: documentType}
	p, ok := r.procs[k]
	if !ok {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "canonical: no processor registered for %s", k)
	}
	return p, nil
}
