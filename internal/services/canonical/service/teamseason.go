package service

import (
	"context"
	"encoding/json"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/services/canonical/domain"
)

// TeamSeasonProcessor upserts provider team-season documents. The document
// keys on the franchise's provider id plus the command's season year.
type TeamSeasonProcessor struct{}

var _ domain.Processor = TeamSeasonProcessor{}

// Process applies one team-season document
func (TeamSeasonProcessor) Process(ctx context.Context, repo domain.StorageRepo, bus eventing.Publisher, doc domain.Document) error {
	var dto espn.TeamSeasonDTO
	if err := json.Unmarshal(doc.Body, &dto); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "team season document malformed")
	}
	if dto.ID.String() == "" {
		return perr.New(perr.ErrorCodeJSON, "team season document missing id")
	}
	if doc.Cmd.SeasonYear == 0 {
		return perr.New(perr.ErrorCodeInvalidArgument, "team season command missing season year")
	}

	franchise, err := repo.FranchiseByExternalID(ctx, doc.Cmd.Provider, dto.ID.String())
	if err != nil {
		return err
	}
	if franchise == nil {
		// the franchise tier may still be in flight; retry later
		return perr.Newf(perr.ErrorCodeUnavailable, "franchise for team %s not in canonical storage yet", dto.ID.String())
	}

	existing, err := repo.TeamSeasonByFranchiseYear(ctx, franchise.ID, doc.Cmd.SeasonYear)
	if err != nil {
		return err
	}
	if existing == nil {
		return insertTeamSeason(ctx, repo, bus, doc, dto, franchise.ID)
	}
	return updateTeamSeason(ctx, repo, bus, doc, dto, existing)
}

func teamSeasonSlug(dto espn.TeamSeasonDTO) string {
	if dto.Slug != "" {
		return dto.Slug
	}
	return domain.Slugify(dto.DisplayName)
}

func insertTeamSeason(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.TeamSeasonDTO,
	franchiseID string,
) error {
	ts := now()
	t := &domain.TeamSeason{
		ID:                newID(),
		FranchiseID:       franchiseID,
		SeasonYear:        doc.Cmd.SeasonYear,
		Location:          dto.Location,
		Name:              dto.Name,
		Nickname:          dto.Nickname,
		Abbreviation:      dto.Abbreviation,
		DisplayName:       dto.DisplayName,
		DisplayNameShort:  dto.ShortDisplayName,
		Slug:              teamSeasonSlug(dto),
		ColorCodeHex:      dto.Color,
		AlternateColorHex: dto.AlternateColor,
		IsActive:          dto.IsActive,
		ExternalIDs: []domain.ExternalID{
			{Provider: doc.Cmd.Provider, Value: dto.ID.String()},
		},
		Images: imageRecords(dto.Logos),
		Audit: domain.Audit{
			CreatedBy: doc.Cmd.CorrelationID, CreatedUTC: ts,
			ModifiedBy: doc.Cmd.CorrelationID, ModifiedUTC: ts,
		},
	}
	if err := repo.InsertTeamSeason(ctx, t); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, t.ID, domain.CausationTeamSeasonProcessor, t.Images)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}
	return publish(ctx, bus, domain.KindTeamSeasonCreated,
		t.Canonical(doc.Cmd.URI, nil),
		doc.Cmd.CorrelationID, domain.CausationTeamSeasonProcessor)
}

func updateTeamSeason(
	ctx context.Context,
	repo domain.StorageRepo,
	bus eventing.Publisher,
	doc domain.Document,
	dto espn.TeamSeasonDTO,
	t *domain.TeamSeason,
) error {
	var changes []domain.FieldChange
	changes = diff(changes, "location", t.Location, dto.Location, func() { t.Location = dto.Location })
	changes = diff(changes, "name", t.Name, dto.Name, func() { t.Name = dto.Name })
	changes = diff(changes, "nickname", t.Nickname, dto.Nickname, func() { t.Nickname = dto.Nickname })
	changes = diff(changes, "abbreviation", t.Abbreviation, dto.Abbreviation, func() { t.Abbreviation = dto.Abbreviation })
	changes = diff(changes, "displayName", t.DisplayName, dto.DisplayName, func() { t.DisplayName = dto.DisplayName })
	changes = diff(changes, "displayNameShort", t.DisplayNameShort, dto.ShortDisplayName, func() { t.DisplayNameShort = dto.ShortDisplayName })
	changes = diff(changes, "slug", t.Slug, teamSeasonSlug(dto), func() { t.Slug = teamSeasonSlug(dto) })
	changes = diff(changes, "colorCodeHex", t.ColorCodeHex, dto.Color, func() { t.ColorCodeHex = dto.Color })
	changes = diff(changes, "alternateColorHex", t.AlternateColorHex, dto.AlternateColor, func() { t.AlternateColorHex = dto.AlternateColor })
	changes = diffBool(changes, "isActive", t.IsActive, dto.IsActive, func() { t.IsActive = dto.IsActive })

	added := newImages(imageRecords(dto.Logos), t.Images)

	if len(changes) == 0 && len(added) == 0 {
		return nil
	}

	t.ModifiedBy = doc.Cmd.CorrelationID
	t.ModifiedUTC = now()
	if err := repo.UpdateTeamSeason(ctx, t, added); err != nil {
		return err
	}

	imgs, err := imageEnvelopes(doc.Cmd, t.ID, domain.CausationTeamSeasonProcessor, added)
	if err != nil {
		return err
	}
	if err := bus.PublishBatch(ctx, imgs); err != nil {
		return err
	}
	return publish(ctx, bus, domain.KindTeamSeasonUpdated,
		t.Canonical(doc.Cmd.URI, changes),
		doc.Cmd.CorrelationID, domain.CausationTeamSeasonProcessor)
}
