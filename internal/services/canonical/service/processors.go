package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	"sportsource/internal/services/canonical/domain"
)

// now is swapped in tests for deterministic audit stamps
var now = func() time.Time { return time.Now().UTC() }

// newID is swapped in tests for deterministic entity ids
var newID = uuid.NewString

func publish(ctx context.Context, bus eventing.Publisher, kind string, payload any, corr, cause string) error {
	env, err := eventing.NewEnvelope(kind, payload, corr, cause)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, env)
}

// imageRecords maps embedded media to storage rows keyed by url hash
func imageRecords(media []espn.ImageDTO) []domain.Image {
	out := make([]domain.Image, 0, len(media))
	for _, m := range media {
		if m.Href == "" {
			continue
		}
		out = append(out, domain.Image{
			ID:      newID(),
			URL:     m.Href,
			URLHash: domain.HashURL(m.Href),
			Width:   m.Width,
			Height:  m.Height,
		})
	}
	return out
}

// imageEnvelopes builds one fetch request per media record, correlated to
// the parent entity
func imageEnvelopes(
	cmd eventing.ProcessResourceIndexItemCommand,
	parentID, causation string,
	images []domain.Image,
) ([]eventing.Envelope, error) {
	envs := make([]eventing.Envelope, 0, len(images))
	for i, im := range images {
		req := eventing.ProcessImageRequest{
			URL:           im.URL,
			ImageID:       im.ID,
			ParentID:      parentID,
			FileName:      fmt.Sprintf("%s-%d.png", parentID, i),
			Provider:      cmd.Provider,
			Sport:         cmd.Sport,
			DocumentType:  cmd.DocumentType,
			SeasonYear:    cmd.SeasonYear,
			Height:        im.Height,
			Width:         im.Width,
			CorrelationID: cmd.CorrelationID,
			CausationID:   causation,
		}
		env, err := eventing.NewEnvelope(eventing.KindProcessImageRequest, req, cmd.CorrelationID, causation)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// newImages returns incoming media absent from stored, diffed by url hash
func newImages(incoming, stored []domain.Image) []domain.Image {
	have := make(map[string]struct{}, len(stored))
	for _, im := range stored {
		have[im.URLHash] = struct{}{}
	}
	var out []domain.Image
	for _, im := range incoming {
		if _, ok := have[im.URLHash]; !ok {
			out = append(out, im)
		}
	}
	return out
}

// diff applies one scalar change, recording it when old and new differ
func diff(changes []domain.FieldChange, field string, old, nu string, apply func()) []domain.FieldChange {
	if old == nu {
		return changes
	}
	apply()
	return append(changes, domain.FieldChange{Field: field, Old: old, New: nu})
}

func diffBool(changes []domain.FieldChange, field string, old, nu bool, apply func()) []domain.FieldChange {
	if old == nu {
		return changes
	}
	apply()
	return append(changes, domain.FieldChange{
		Field: field,
		Old:   fmt.Sprintf("%t", old),
		New:   fmt.Sprintf("%t", nu),
	})
}

func diffInt(changes []domain.FieldChange, field string, old, nu int, apply func()) []domain.FieldChange {
	if old == nu {
		return changes
	}
	apply()
	return append(changes, domain.FieldChange{
		Field: field,
		Old:   fmt.Sprintf("%d", old),
		New:   fmt.Sprintf("%d", nu),
	})
}
