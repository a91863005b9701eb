// Package repo provides Postgres bindings for the canonical entity store
package repo

import (
	"context"

	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/store"
	"sportsource/internal/services/canonical/domain"
)

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// Compile-time assertion: queries implements domain.StorageRepo
var _ domain.StorageRepo = (*queries)(nil)

// NewPG returns a Postgres binder for the canonical store
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

// VenueByExternalID loads a venue with its external ids and images, or
// (nil, nil) when the provider id is unknown
func (r *queries) VenueByExternalID(ctx context.Context, provider, value string) (*domain.Venue, error) {
	v, err := store.One(ctx, r.q, scanVenue, `
		SELECT v.id, v.name, v.short_name, v.capacity, v.grass, v.indoor,
		       v.city, v.state, v.postal_code,
		       v.created_by, v.created_utc, v.modified_by, v.modified_utc
		FROM venues v
		JOIN venue_external_ids x ON x.venue_id = v.id
		WHERE x.provider = $1 AND x.value = $2
	`, provider, value)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgresf(err, "venue by external id %s/%s", provider, value)
	}
	if v.ExternalIDs, err = r.externalIDs(ctx, "venue_external_ids", "venue_id", v.ID); err != nil {
		return nil, err
	}
	if v.Images, err = r.images(ctx, "venue_images", "venue_id", v.ID); err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVenue writes the venue with its external ids and images. The unique
// index on (provider, value) is the backstop against concurrent inserts of
// the same provider id.
func (r *queries) InsertVenue(ctx context.Context, v *domain.Venue) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO venues
			(id, name, short_name, capacity, grass, indoor, city, state, postal_code,
			 created_by, created_utc, modified_by, modified_utc)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		v.ID, v.Name, v.ShortName, v.Capacity, v.Grass, v.Indoor,
		v.City, v.State, v.PostalCode,
		v.CreatedBy, v.CreatedUTC, v.ModifiedBy, v.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "insert venue %s", v.ID)
	}
	if err := r.insertExternalIDs(ctx, "venue_external_ids", "venue_id", v.ID, v.ExternalIDs); err != nil {
		return err
	}
	return r.insertImages(ctx, "venue_images", "venue_id", v.ID, v.Images)
}

// UpdateVenue rewrites the venue's scalars and appends any new images.
// created_by / created_utc are never touched.
func (r *queries) UpdateVenue(ctx context.Context, v *domain.Venue, newImages []domain.Image) error {
	_, err := r.q.Exec(ctx, `
		UPDATE venues SET
			name = $2, short_name = $3, capacity = $4, grass = $5, indoor = $6,
			city = $7, state = $8, postal_code = $9,
			modified_by = $10, modified_utc = $11
		WHERE id = $1
	`,
		v.ID, v.Name, v.ShortName, v.Capacity, v.Grass, v.Indoor,
		v.City, v.State, v.PostalCode, v.ModifiedBy, v.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "update venue %s", v.ID)
	}
	return r.insertImages(ctx, "venue_images", "venue_id", v.ID, newImages)
}

// FranchiseByExternalID loads a franchise, or (nil, nil) when unknown
func (r *queries) FranchiseByExternalID(ctx context.Context, provider, value string) (*domain.Franchise, error) {
	f, err := store.One(ctx, r.q, scanFranchise, `
		SELECT f.id, f.sport, f.name, f.nickname, f.abbreviation,
		       f.display_name, f.display_name_short, f.location, f.slug,
		       f.color_code_hex, f.is_active, COALESCE(f.venue_id::text, ''),
		       f.created_by, f.created_utc, f.modified_by, f.modified_utc
		FROM franchises f
		JOIN franchise_external_ids x ON x.franchise_id = f.id
		WHERE x.provider = $1 AND x.value = $2
	`, provider, value)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgresf(err, "franchise by external id %s/%s", provider, value)
	}
	if f.ExternalIDs, err = r.externalIDs(ctx, "franchise_external_ids", "franchise_id", f.ID); err != nil {
		return nil, err
	}
	if f.Images, err = r.images(ctx, "franchise_images", "franchise_id", f.ID); err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertFranchise writes the franchise with its external ids and images
func (r *queries) InsertFranchise(ctx context.Context, f *domain.Franchise) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO franchises
			(id, sport, name, nickname, abbreviation, display_name, display_name_short,
			 location, slug, color_code_hex, is_active, venue_id,
			 created_by, created_utc, modified_by, modified_utc)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, NULLIF($12,'')::uuid, $13,$14,$15,$16)
	`,
		f.ID, f.Sport, f.Name, f.Nickname, f.Abbreviation, f.DisplayName,
		f.DisplayNameShort, f.Location, f.Slug, f.ColorCodeHex, f.IsActive,
		f.VenueID, f.CreatedBy, f.CreatedUTC, f.ModifiedBy, f.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "insert franchise %s", f.ID)
	}
	if err := r.insertExternalIDs(ctx, "franchise_external_ids", "franchise_id", f.ID, f.ExternalIDs); err != nil {
		return err
	}
	return r.insertImages(ctx, "franchise_images", "franchise_id", f.ID, f.Images)
}

// UpdateFranchise rewrites the franchise's scalars and appends any new
// images. created_by / created_utc are never touched.
func (r *queries) UpdateFranchise(ctx context.Context, f *domain.Franchise, newImages []domain.Image) error {
	_, err := r.q.Exec(ctx, `
		UPDATE franchises SET
			name = $2, nickname = $3, abbreviation = $4, display_name = $5,
			display_name_short = $6, location = $7, slug = $8,
			color_code_hex = $9, is_active = $10, venue_id = NULLIF($11,'')::uuid,
			modified_by = $12, modified_utc = $13
		WHERE id = $1
	`,
		f.ID, f.Name, f.Nickname, f.Abbreviation, f.DisplayName,
		f.DisplayNameShort, f.Location, f.Slug, f.ColorCodeHex, f.IsActive,
		f.VenueID, f.ModifiedBy, f.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "update franchise %s", f.ID)
	}
	return r.insertImages(ctx, "franchise_images", "franchise_id", f.ID, newImages)
}

// TeamSeasonByFranchiseYear loads one franchise season, or (nil, nil)
func (r *queries) TeamSeasonByFranchiseYear(ctx context.Context, franchiseID string, year int) (*domain.TeamSeason, error) {
	t, err := store.One(ctx, r.q, scanTeamSeason, `
		SELECT t.id, t.franchise_id, t.season_year, t.location, t.name,
		       t.nickname, t.abbreviation, t.display_name, t.display_name_short,
		       t.slug, t.color_code_hex, t.alternate_color_hex, t.is_active,
		       t.created_by, t.created_utc, t.modified_by, t.modified_utc
		FROM team_seasons t
		WHERE t.franchise_id = $1 AND t.season_year = $2
	`, franchiseID, year)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, nil
		}
		return nil, perr.FromPostgresf(err, "team season %s/%d", franchiseID, year)
	}
	if t.ExternalIDs, err = r.externalIDs(ctx, "team_season_external_ids", "team_season_id", t.ID); err != nil {
		return nil, err
	}
	if t.Images, err = r.images(ctx, "team_season_images", "team_season_id", t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTeamSeason writes the season with its external ids and images
func (r *queries) InsertTeamSeason(ctx context.Context, t *domain.TeamSeason) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO team_seasons
			(id, franchise_id, season_year, location, name, nickname, abbreviation,
			 display_name, display_name_short, slug, color_code_hex,
			 alternate_color_hex, is_active,
			 created_by, created_utc, modified_by, modified_utc)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		t.ID, t.FranchiseID, t.SeasonYear, t.Location, t.Name, t.Nickname,
		t.Abbreviation, t.DisplayName, t.DisplayNameShort, t.Slug,
		t.ColorCodeHex, t.AlternateColorHex, t.IsActive,
		t.CreatedBy, t.CreatedUTC, t.ModifiedBy, t.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "insert team season %s", t.ID)
	}
	if err := r.insertExternalIDs(ctx, "team_season_external_ids", "team_season_id", t.ID, t.ExternalIDs); err != nil {
		return err
	}
	return r.insertImages(ctx, "team_season_images", "team_season_id", t.ID, t.Images)
}

// UpdateTeamSeason rewrites the season's scalars and appends any new images
func (r *queries) UpdateTeamSeason(ctx context.Context, t *domain.TeamSeason, newImages []domain.Image) error {
	_, err := r.q.Exec(ctx, `
		UPDATE team_seasons SET
			location = $2, name = $3, nickname = $4, abbreviation = $5,
			display_name = $6, display_name_short = $7, slug = $8,
			color_code_hex = $9, alternate_color_hex = $10, is_active = $11,
			modified_by = $12, modified_utc = $13
		WHERE id = $1
	`,
		t.ID, t.Location, t.Name, t.Nickname, t.Abbreviation, t.DisplayName,
		t.DisplayNameShort, t.Slug, t.ColorCodeHex, t.AlternateColorHex,
		t.IsActive, t.ModifiedBy, t.ModifiedUTC,
	)
	if err != nil {
		return perr.FromPostgresf(err, "update team season %s", t.ID)
	}
	return r.insertImages(ctx, "team_season_images", "team_season_id", t.ID, newImages)
}

func (r *queries) externalIDs(ctx context.Context, table, fk, id string) ([]domain.ExternalID, error) {
	return store.Many(ctx, r.q, func(row store.Row) (domain.ExternalID, error) {
		var x domain.ExternalID
		err := row.Scan(&x.Provider, &x.Value)
		return x, err
	}, `SELECT provider, value FROM `+table+` WHERE `+fk+` = $1 ORDER BY provider, value`, id)
}

func (r *queries) images(ctx context.Context, table, fk, id string) ([]domain.Image, error) {
	return store.Many(ctx, r.q, func(row store.Row) (domain.Image, error) {
		var im domain.Image
		err := row.Scan(&im.ID, &im.URL, &im.URLHash, &im.Width, &im.Height)
		return im, err
	}, `SELECT id, url, url_hash, width, height FROM `+table+` WHERE `+fk+` = $1 ORDER BY url_hash`, id)
}

func (r *queries) insertExternalIDs(ctx context.Context, table, fk, id string, xs []domain.ExternalID) error {
	for _, x := range xs {
		_, err := r.q.Exec(ctx,
			`INSERT INTO `+table+` (`+fk+`, provider, value) VALUES ($1,$2,$3)`,
			id, x.Provider, x.Value,
		)
		if err != nil {
			return perr.FromPostgresf(err, "insert %s %s/%s", table, x.Provider, x.Value)
		}
	}
	return nil
}

func (r *queries) insertImages(ctx context.Context, table, fk, id string, ims []domain.Image) error {
	for _, im := range ims {
		_, err := r.q.Exec(ctx, `
			INSERT INTO `+table+` (id, `+fk+`, url, url_hash, width, height)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT DO NOTHING
		`, im.ID, id, im.URL, im.URLHash, im.Width, im.Height)
		if err != nil {
			return perr.FromPostgresf(err, "insert %s %s", table, im.ID)
		}
	}
	return nil
}

func scanVenue(row store.Row) (domain.Venue, error) {
	var v domain.Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.ShortName, &v.Capacity, &v.Grass, &v.Indoor,
		&v.City, &v.State, &v.PostalCode,
		&v.CreatedBy, &v.CreatedUTC, &v.ModifiedBy, &v.ModifiedUTC,
	)
	return v, err
}

func scanFranchise(row store.Row) (domain.Franchise, error) {
	var f domain.Franchise
	err := row.Scan(
		&f.ID, &f.Sport, &f.Name, &f.Nickname, &f.Abbreviation,
		&f.DisplayName, &f.DisplayNameShort, &f.Location, &f.Slug,
		&f.ColorCodeHex, &f.IsActive, &f.VenueID,
		&f.CreatedBy, &f.CreatedUTC, &f.ModifiedBy, &f.ModifiedUTC,
	)
	return f, err
}

func scanTeamSeason(row store.Row) (domain.TeamSeason, error) {
	var t domain.TeamSeason
	err := row.Scan(
		&t.ID, &t.FranchiseID, &t.SeasonYear, &t.Location, &t.Name,
		&t.Nickname, &t.Abbreviation, &t.DisplayName, &t.DisplayNameShort,
		&t.Slug, &t.ColorCodeHex, &t.AlternateColorHex, &t.IsActive,
		&t.CreatedBy, &t.CreatedUTC, &t.ModifiedBy, &t.ModifiedUTC,
	)
	return t, err
}
