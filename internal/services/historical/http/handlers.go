// Package http provides http transport for historical backfill scheduling
package http

import (
	stdhttp "net/http"
	"time"

	"sportsource/internal/core/resource"
	perr "sportsource/internal/platform/errors"
	phttp "sportsource/internal/platform/net/http"
	"sportsource/internal/services/historical/domain"

	"github.com/go-chi/chi/v5"
)

// BackfillInput is the wire form of a backfill request. Delay overrides are
// Go duration strings keyed by document type, e.g. {"venue": "15m"}.
type BackfillInput struct {
	Provider      string            `json:"sourceProvider" validate:"required"`
	Sport         string            `json:"sport" validate:"required"`
	SeasonYear    int               `json:"seasonYear" validate:"required"`
	Force         bool              `json:"force"`
	CorrelationID string            `json:"correlationId"`
	Delays        map[string]string `json:"delays"`
}

// Register mounts the historical routes
func Register(r chi.Router, p domain.Ports) {
	h := &handlers{ports: p}
	r.Post("/historical/backfill", phttp.JSONHandler(h.backfill))
}

type handlers struct{ ports domain.Ports }

func (h *handlers) backfill(r *stdhttp.Request, in BackfillInput) (any, error) {
	req := domain.BackfillRequest{
		Provider:      in.Provider,
		Sport:         in.Sport,
		SeasonYear:    in.SeasonYear,
		Force:         in.Force,
		CorrelationID: in.CorrelationID,
	}
	if len(in.Delays) > 0 {
		req.Delays = make(map[resource.DocumentType]time.Duration, len(in.Delays))
		for doc, raw := range in.Delays {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, perr.Newf(perr.ErrorCodeValidation, "delays.%s: invalid duration %q", doc, raw)
			}
			req.Delays[resource.DocumentType(doc)] = d
		}
	}
	return h.ports.ScheduleBackfill(r.Context(), req)
}
