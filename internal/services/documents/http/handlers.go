// Package http provides http transport for ad-hoc document requests
package http

import (
	stdhttp "net/http"

	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	phttp "sportsource/internal/platform/net/http"
	"sportsource/internal/platform/net/http/bind"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestInput asks for one document URI to be sourced. Index URIs fan out
// into a crawl; leaf URIs produce a single item command.
type RequestInput struct {
	Provider      string `json:"sourceProvider" validate:"required"`
	Sport         string `json:"sport" validate:"required"`
	DocumentType  string `json:"documentType" validate:"required"`
	URI           string `json:"uri" validate:"required,url"`
	SeasonYear    int    `json:"seasonYear"`
	BypassCache   bool   `json:"bypassCache"`
	CorrelationID string `json:"correlationId"`
}

// RequestOutput acknowledges the queued dispatch
type RequestOutput struct {
	JobID         string `json:"jobId"`
	CorrelationID string `json:"correlationId"`
}

// Register mounts the documents routes
func Register(r chi.Router, q jobs.Queue) {
	h := &handlers{queue: q}
	r.Post("/documents/request", phttp.Handle(func(r *stdhttp.Request) phttp.Response {
		in, err := bind.ParseJSON[RequestInput](r)
		if err != nil {
			return phttp.Error(err)
		}
		out, err := h.request(r, in)
		if err != nil {
			return phttp.Error(err)
		}
		// the dispatch runs on the worker, not in this request
		return phttp.Accepted(out)
	}))
}

type handlers struct{ queue jobs.Queue }

func (h *handlers) request(r *stdhttp.Request, in RequestInput) (RequestOutput, error) {
	corr := in.CorrelationID
	if corr == "" {
		corr = uuid.NewString()
	}
	req := eventing.DocumentRequested{
		CorrelationID: corr,
		Provider:      in.Provider,
		Sport:         in.Sport,
		DocumentType:  in.DocumentType,
		URI:           in.URI,
		SeasonYear:    in.SeasonYear,
		BypassCache:   in.BypassCache,
	}
	jobID, err := h.queue.Enqueue(r.Context(), eventing.KindDispatchDocument, req, corr)
	if err != nil {
		return RequestOutput{}, err
	}
	return RequestOutput{JobID: jobID, CorrelationID: corr}, nil
}
