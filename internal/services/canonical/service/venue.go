package service

import (
	"context"
	"encoding/json"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/services/canonical/domain"
)

// VenueProcessor upserts provider venue documents
type VenueProcessor struct{}

var _ domain.Processor = VenueProcessor{}

// Process applies one venue document. Existence is decided solely by the
// stored external id; the provider's own new/updated hints are ignored.
func (VenueProcessor) Process(ctx context.Context, repo domain.StorageRepo, bus eventing.Publisher, doc domain.Document) error {
	var dto espn.VenueDTO
	if err := json.Unmarshal(doc.Body, &dto); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "venue document malformed")
	}
	if dto.ID.String() == "" {
		return perr.New(perr.ErrorCodeJSON, "venue document missing id")
	}

	existing, err := repo.VenueByExternalID(ctx, doc.Cmd.Provider, dto.ID.String())
	if err != nil {
		return err
	}
	if existing == nil {
		return insertVenue(ctx, repo, bus, doc, dto)
	}
	return updateVenue(ctx, repo, bus, doc, dto, existing)
}

func insertVenue(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.VenueDTO,
) error {
	ts := now()
	v := &domain.Venue{
		ID:         newID(),
		Name:       dto.FullName,
		ShortName:  dto.Name,
		Capacity:   dto.Capacity,
		Grass:      dto.Grass,
		Indoor:     dto.Indoor,
		City:       dto.Address.City,
		State:      dto.Address.State,
		PostalCode: dto.Address.ZipCode,
		ExternalIDs: []domain.ExternalID{
			{Provider: doc.Cmd.Provider, Value: dto.ID.String()},
		},
		Images: imageRecords(dto.Images),
		Audit: domain.Audit{
			CreatedBy: doc.Cmd.CorrelationID, CreatedUTC: ts,
			ModifiedBy: doc.Cmd.CorrelationID, ModifiedUTC: ts,
		},
	}
	if err := repo.InsertVenue(ctx, v); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, v.ID, domain.CausationVenueProcessor, v.Images)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}
	return publish(ctx, bus, domain.KindVenueCreated,
		v.Canonical(doc.Cmd.URI, nil),
		doc.Cmd.CorrelationID, domain.CausationVenueProcessor)
}

func updateVenue(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.VenueDTO,
	v *domain.Venue,
) error {
	var changes []domain.FieldChange
	changes = diff(changes, "name", v.Name, dto.FullName, func() { v.Name = dto.FullName })
	changes = diff(changes, "shortName", v.ShortName, dto.Name, func() { v.ShortName = dto.Name })
	changes = diffInt(changes, "capacity", v.Capacity, dto.Capacity, func() { v.Capacity = dto.Capacity })
	changes = diffBool(changes, "grass", v.Grass, dto.Grass, func() { v.Grass = dto.Grass })
	changes = diffBool(changes, "indoor", v.Indoor, dto.Indoor, func() { v.Indoor = dto.Indoor })
	changes = diff(changes, "city", v.City, dto.Address.City, func() { v.City = dto.Address.City })
	changes = diff(changes, "state", v.State, dto.Address.State, func() { v.State = dto.Address.State })
	changes = diff(changes, "postalCode", v.PostalCode, dto.Address.ZipCode, func() { v.PostalCode = dto.Address.ZipCode })

	added := newImages(imageRecords(dto.Images), v.Images)

	if len(changes) == 0 && len(added) == 0 {
		logger.C(ctx).Debug().Str("venue_id", v.ID).Msg("no changes detected")
		return nil
	}

	v.ModifiedBy = doc.Cmd.CorrelationID
	v.ModifiedUTC = now()
	if err := repo.UpdateVenue(ctx, v, added); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, v.ID, domain.CausationVenueProcessor, added)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}
	return publish(ctx, bus, domain.KindVenueUpdated,
		v.Canonical(doc.Cmd.URI, changes),
		doc.Cmd.CorrelationID, domain.CausationVenueProcessor)
}
