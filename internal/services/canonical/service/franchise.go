package service

import (
	"context"
	"encoding/json"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/core/resource"
	"sportsource/internal/eventing"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/services/canonical/domain"
)

// FranchiseProcessor upserts provider franchise documents. Embedded venue
// references resolve against canonical storage; team refs fan out as child
// document requests.
type FranchiseProcessor struct{}

var _ domain.Processor = FranchiseProcessor{}

// Process applies one franchise document
func (FranchiseProcessor) Process(ctx context.Context, repo domain.StorageRepo, bus eventing.Publisher, doc domain.Document) error {
	var dto espn.FranchiseDTO
	if err := json.Unmarshal(doc.Body, &dto); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "franchise document malformed")
	}
	if dto.ID.String() == "" {
		return perr.New(perr.ErrorCodeJSON, "franchise document missing id")
	}

	existing, err := repo.FranchiseByExternalID(ctx, doc.Cmd.Provider, dto.ID.String())
	if err != nil {
		return err
	}
	if existing == nil {
		return insertFranchise(ctx, repo, bus, doc, dto)
	}
	return updateFranchise(ctx, repo, bus, doc, dto, existing)
}

// resolveVenueID maps an embedded venue ref to a stored canonical venue id.
// An unknown venue leaves the link empty; the venue document arrives on its
// own tier and a later update closes the gap.
func resolveVenueID(ctx context.Context, repo domain.StorageRepo, provider string, ref *espn.Ref) (string, error) {
	if ref == nil || ref.Ref == "" {
		return "", nil
	}
	extID := espn.RefID(ref.Ref)
	if extID == "" {
		return "", nil
	}
	v, err := repo.VenueByExternalID(ctx, provider, extID)
	if err != nil {
		return "", err
	}
	if v == nil {
		logger.C(ctx).Warn().Str("venue_ref", ref.Ref).Msg("venue ref not in canonical storage yet")
		return "", nil
	}
	return v.ID, nil
}

func franchiseSlug(dto espn.FranchiseDTO) string {
	if dto.Slug != "" {
		return dto.Slug
	}
	return domain.Slugify(dto.DisplayName)
}

func insertFranchise(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.FranchiseDTO,
) error {
	venueID, err := resolveVenueID(ctx, repo, doc.Cmd.Provider, dto.Venue)
	if err != nil {
		return err
	}

	ts := now()
	f := &domain.Franchise{
		ID:               newID(),
		Sport:            doc.Cmd.Sport,
		Name:             dto.Name,
		Nickname:         dto.Nickname,
		Abbreviation:     dto.Abbreviation,
		DisplayName:      dto.DisplayName,
		DisplayNameShort: dto.ShortDisplayName,
		Location:         dto.Location,
		Slug:             franchiseSlug(dto),
		ColorCodeHex:     dto.Color,
		IsActive:         dto.IsActive,
		VenueID:          venueID,
		ExternalIDs: []domain.ExternalID{
			{Provider: doc.Cmd.Provider, Value: dto.ID.String()},
		},
		Images: imageRecords(dto.Logos),
		Audit: domain.Audit{
			CreatedBy: doc.Cmd.CorrelationID, CreatedUTC: ts,
			ModifiedBy: doc.Cmd.CorrelationID, ModifiedUTC: ts,
		},
	}
	if err := repo.InsertFranchise(ctx, f); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, f.ID, domain.CausationFranchiseProcessor, f.Images)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}

	// child sourcing: the team document for the current season
	if dto.Team != nil && dto.Team.Ref != "" {
		req := eventing.DocumentRequested{
			CorrelationID: doc.Cmd.CorrelationID,
			Provider:      doc.Cmd.Provider,
			Sport:         doc.Cmd.Sport,
			DocumentType:  string(resource.DocTeamSeason),
			URI:           dto.Team.Ref,
			ParentID:      f.ID,
			SeasonYear:    doc.Cmd.SeasonYear,
		}
		if err := publish(ctx, bus, eventing.KindDocumentRequested, req,
			doc.Cmd.CorrelationID, domain.CausationFranchiseProcessor); err != nil {
			return err
		}
	}

	return publish(ctx, bus, domain.KindFranchiseCreated,
		f.Canonical(doc.Cmd.URI, nil),
		doc.Cmd.CorrelationID, domain.CausationFranchiseProcessor)
}

func updateFranchise(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.FranchiseDTO,
	f *domain.Franchise,
) error {
	venueID, err := resolveVenueID(ctx, repo, doc.Cmd.Provider, dto.Venue)
	if err != nil {
		return err
	}

	var changes []domain.FieldChange
	if venueID != "" {
		changes = diff(changes, "venueId", f.VenueID, venueID, func() { f.VenueID = venueID })
	}
	changes = diff(changes, "name", f.Name, dto.Name, func() { f.Name = dto.Name })
	changes = diff(changes, "nickname", f.Nickname, dto.Nickname, func() { f.Nickname = dto.Nickname })
	changes = diff(changes, "abbreviation", f.Abbreviation, dto.Abbreviation, func() { f.Abbreviation = dto.Abbreviation })
	changes = diff(changes, "displayName", f.DisplayName, dto.DisplayName, func() { f.DisplayName = dto.DisplayName })
	changes = diff(changes, "displayNameShort", f.DisplayNameShort, dto.ShortDisplayName, func() { f.DisplayNameShort = dto.ShortDisplayName })
	changes = diff(changes, "location", f.Location, dto.Location, func() { f.Location = dto.Location })
	changes = diff(changes, "slug", f.Slug, franchiseSlug(dto), func() { f.Slug = franchiseSlug(dto) })
	changes = diff(changes, "colorCodeHex", f.ColorCodeHex, dto.Color, func() { f.ColorCodeHex = dto.Color })
	changes = diffBool(changes, "isActive", f.IsActive, dto.IsActive, func() { f.IsActive = dto.IsActive })

	added := newImages(imageRecords(dto.Logos), f.Images)

	if len(changes) == 0 && len(added) == 0 {
		logger.C(ctx).Debug().Str("franchise_id", f.ID).Msg("no changes detected")
		return nil
	}

	f.ModifiedBy = doc.Cmd.CorrelationID
	f.ModifiedUTC = now()
	if err := repo.UpdateFranchise(ctx, f, added); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, f.ID, domain.CausationFranchiseProcessor, added)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}
	return publish(ctx, bus, domain.KindFranchiseUpdated,
		f.Canonical(doc.Cmd.URI, changes),
		doc.Cmd.CorrelationID, domain.CausationFranchiseProcessor)
}
