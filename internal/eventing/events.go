// Package eventing carries domain messages between pipeline components:
// envelope shape, outbox/direct publishing, and the broker management client
package eventing

import (
	"encoding/json"
	"time"

	perr "sportsource/internal/platform/errors"

	"github.com/google/uuid"
)

// Message kinds routed through the bus and the job queue
const (
	KindDocumentRequested   = "document.requested"
	KindProcessImageRequest = "image.process-requested"
	KindDispatchDocument    = "document.dispatch"
	KindProcessResourceItem = "resource.item.process"
)

// Envelope wraps one domain message for transport. AttemptCount is stamped
// by the consuming side and is monotonically non-decreasing across
// redeliveries of the same logical message.
type Envelope struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	CorrelationID string          `json:"correlationId"`
	CausationID   string          `json:"causationId,omitempty"`
	AttemptCount  int             `json:"attemptCount"`
	OccurredUTC   time.Time       `json:"occurredUtc"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for publication
func NewEnvelope(kind string, payload any, correlationID, causationID string) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal %s payload", kind)
	}
	return Envelope{
		ID:            uuid.NewString(),
		Kind:          kind,
		CorrelationID: correlationID,
		CausationID:   causationID,
		OccurredUTC:   time.Now().UTC(),
		Payload:       b,
	}, nil
}

// DocumentRequested is the inbound trigger for the sourcing pipeline
type DocumentRequested struct {
	CorrelationID string `json:"correlationId"`
	Provider      string `json:"sourceProvider"`
	Sport         string `json:"sport"`
	DocumentType  string `json:"documentType"`
	URI           string `json:"uri"`
	ParentID      string `json:"parentId,omitempty"`
	SeasonYear    int    `json:"seasonYear,omitempty"`
	BypassCache   bool   `json:"bypassCache"`

	// ResourceIndexJobID links the request back to a scheduled backfill
	// row so the crawler can record page progress against it
	ResourceIndexJobID string `json:"resourceIndexJobId,omitempty"`
}

// ProcessResourceIndexItemCommand targets one leaf document for sourcing
// and canonical processing. ID is the identity hash of the URI
type ProcessResourceIndexItemCommand struct {
	CorrelationID string `json:"correlationId"`
	ID            string `json:"id"`
	URI           string `json:"uri"`
	Provider      string `json:"sourceProvider"`
	Sport         string `json:"sport"`
	DocumentType  string `json:"documentType"`
	ParentID      string `json:"parentId,omitempty"`
	SeasonYear    int    `json:"seasonYear,omitempty"`
	BypassCache   bool   `json:"bypassCache"`
}

// ProcessImageRequest asks for one child media payload to be fetched and
// stored, correlated to its parent entity
type ProcessImageRequest struct {
	URL           string `json:"url"`
	ImageID       string `json:"imageId"`
	ParentID      string `json:"parentEntityId"`
	FileName      string `json:"fileName"`
	Provider      string `json:"sourceProvider"`
	Sport         string `json:"sport"`
	DocumentType  string `json:"documentType"`
	SeasonYear    int    `json:"seasonYear,omitempty"`
	Height        int    `json:"height,omitempty"`
	Width         int    `json:"width,omitempty"`
	CorrelationID string `json:"correlationId"`
	CausationID   string `json:"causationId"`
}
