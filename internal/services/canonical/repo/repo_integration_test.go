//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"sportsource/internal/platform/store"
	"sportsource/internal/services/canonical/domain"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	pgc, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sportsource"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := pgc.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgc.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get connection string: %v", err)
	}

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	})
	if err != nil {
		_ = pgc.Terminate(context.Background())
		cancel()
		t.Fatalf("store.Open: %v", err)
	}

	ddl, err := os.ReadFile("../../../../migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.PG.Exec(ctx, string(ddl)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	return st, func() {
		_ = st.Close(context.Background())
		_ = pgc.Terminate(context.Background())
		cancel()
	}
}

func sampleVenue(corr string) *domain.Venue {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Venue{
		ID:         uuid.NewString(),
		Name:       "Kyle Field",
		ShortName:  "Kyle Field",
		Capacity:   102733,
		Grass:      true,
		City:       "College Station",
		State:      "TX",
		PostalCode: "77843",
		ExternalIDs: []domain.ExternalID{
			{Provider: "espn", Value: "3632"},
		},
		Images: []domain.Image{
			{ID: uuid.NewString(), URL: "https://a.espncdn.com/kyle.jpg", URLHash: domain.HashURL("https://a.espncdn.com/kyle.jpg"), Width: 2000, Height: 1125},
		},
		Audit: domain.Audit{CreatedBy: corr, CreatedUTC: now, ModifiedBy: corr, ModifiedUTC: now},
	}
}

func TestVenueRoundTrip_Integration(t *testing.T) {
	st, stop := startStore(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	repo := NewPG().Bind(st.PG)

	missing, err := repo.VenueByExternalID(ctx, "espn", "3632")
	if err != nil {
		t.Fatalf("lookup missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown external id, got %+v", missing)
	}

	v := sampleVenue("corr-int-1")
	if err := repo.InsertVenue(ctx, v); err != nil {
		t.Fatalf("InsertVenue: %v", err)
	}

	got, err := repo.VenueByExternalID(ctx, "espn", "3632")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != v.ID {
		t.Fatalf("lookup returned %+v", got)
	}
	if got.Capacity != 102733 || !got.Grass {
		t.Fatalf("scalars lost: %+v", got)
	}
	if len(got.ExternalIDs) != 1 || len(got.Images) != 1 {
		t.Fatalf("children lost: %d ids, %d images", len(got.ExternalIDs), len(got.Images))
	}

	// update with one new and one already-stored image; the stored one must
	// not duplicate
	got.Capacity = 110000
	got.ModifiedUTC = time.Now().UTC()
	fresh := domain.Image{
		ID: uuid.NewString(), URL: "https://a.espncdn.com/kyle-night.jpg",
		URLHash: domain.HashURL("https://a.espncdn.com/kyle-night.jpg"),
	}
	if err := repo.UpdateVenue(ctx, got, []domain.Image{got.Images[0], fresh}); err != nil {
		t.Fatalf("UpdateVenue: %v", err)
	}

	again, err := repo.VenueByExternalID(ctx, "espn", "3632")
	if err != nil {
		t.Fatalf("lookup after update: %v", err)
	}
	if again.Capacity != 110000 {
		t.Fatalf("capacity = %d", again.Capacity)
	}
	if len(again.Images) != 2 {
		t.Fatalf("images = %d, want 2 (redelivered image must not duplicate)", len(again.Images))
	}
}

func TestFranchiseAndTeamSeason_Integration(t *testing.T) {
	st, stop := startStore(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	repo := NewPG().Bind(st.PG)
	now := time.Now().UTC().Truncate(time.Millisecond)

	v := sampleVenue("corr-int-2")
	if err := repo.InsertVenue(ctx, v); err != nil {
		t.Fatalf("InsertVenue: %v", err)
	}

	f := &domain.Franchise{
		ID:           uuid.NewString(),
		Sport:        "football-ncaa",
		Name:         "Texas A&M Aggies",
		Nickname:     "Aggies",
		Abbreviation: "TA&M",
		DisplayName:  "Texas A&M Aggies",
		Location:     "Texas A&M",
		Slug:         "texas-a-m-aggies",
		ColorCodeHex: "500000",
		IsActive:     true,
		VenueID:      v.ID,
		ExternalIDs:  []domain.ExternalID{{Provider: "espn", Value: "245"}},
		Audit:        domain.Audit{CreatedBy: "corr-int-2", CreatedUTC: now, ModifiedBy: "corr-int-2", ModifiedUTC: now},
	}
	if err := repo.InsertFranchise(ctx, f); err != nil {
		t.Fatalf("InsertFranchise: %v", err)
	}

	gotF, err := repo.FranchiseByExternalID(ctx, "espn", "245")
	if err != nil {
		t.Fatalf("franchise lookup: %v", err)
	}
	if gotF == nil || gotF.VenueID != v.ID {
		t.Fatalf("franchise lookup returned %+v", gotF)
	}

	// clearing the venue link must round-trip through the NULLIF path,
	// and a logo arriving on the update pass must append
	gotF.VenueID = ""
	gotF.ModifiedUTC = time.Now().UTC()
	logo := domain.Image{
		ID:      uuid.NewString(),
		URL:     "https://a.espncdn.com/teamlogos/245-dark.png",
		URLHash: domain.HashURL("https://a.espncdn.com/teamlogos/245-dark.png"),
		Width:   500,
		Height:  500,
	}
	if err := repo.UpdateFranchise(ctx, gotF, []domain.Image{logo}); err != nil {
		t.Fatalf("UpdateFranchise: %v", err)
	}
	cleared, err := repo.FranchiseByExternalID(ctx, "espn", "245")
	if err != nil {
		t.Fatalf("franchise lookup after update: %v", err)
	}
	if cleared.VenueID != "" {
		t.Fatalf("venue link not cleared: %q", cleared.VenueID)
	}
	if len(cleared.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(cleared.Images))
	}

	ts := &domain.TeamSeason{
		ID:           uuid.NewString(),
		FranchiseID:  f.ID,
		SeasonYear:   2024,
		Location:     "Texas A&M",
		Name:         "Texas A&M Aggies",
		Nickname:     "Aggies",
		DisplayName:  "Texas A&M Aggies",
		Slug:         "texas-a-m-aggies",
		ColorCodeHex: "500000",
		IsActive:     true,
		ExternalIDs:  []domain.ExternalID{{Provider: "espn", Value: "245"}},
		Audit:        domain.Audit{CreatedBy: "corr-int-2", CreatedUTC: now, ModifiedBy: "corr-int-2", ModifiedUTC: now},
	}
	if err := repo.InsertTeamSeason(ctx, ts); err != nil {
		t.Fatalf("InsertTeamSeason: %v", err)
	}

	gotTS, err := repo.TeamSeasonByFranchiseYear(ctx, f.ID, 2024)
	if err != nil {
		t.Fatalf("team season lookup: %v", err)
	}
	if gotTS == nil || gotTS.ID != ts.ID {
		t.Fatalf("team season lookup returned %+v", gotTS)
	}

	otherYear, err := repo.TeamSeasonByFranchiseYear(ctx, f.ID, 2023)
	if err != nil {
		t.Fatalf("team season lookup 2023: %v", err)
	}
	if otherYear != nil {
		t.Fatalf("expected nil for unscheduled year, got %+v", otherYear)
	}
}
