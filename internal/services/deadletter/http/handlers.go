// Package http provides http transport for dead-letter reprocessing
package http

import (
	stdhttp "net/http"

	phttp "sportsource/internal/platform/net/http"
	"sportsource/internal/services/deadletter/domain"

	"github.com/go-chi/chi/v5"
)

// Register mounts the dead-letter routes
func Register(r chi.Router, p domain.Ports) {
	h := &handlers{ports: p}
	r.Post("/deadletter/reprocess", phttp.JSONHandler(h.reprocess))
	r.Post("/deadletter/requeue-dead", phttp.JSONHandler(h.requeueDead))
}

type handlers struct{ ports domain.Ports }

func (h *handlers) reprocess(r *stdhttp.Request, cmd domain.ReprocessCommand) (any, error) {
	return h.ports.Reprocess(r.Context(), cmd)
}

func (h *handlers) requeueDead(r *stdhttp.Request, cmd domain.RequeueDeadCommand) (any, error) {
	return h.ports.RequeueDead(r.Context(), cmd)
}
