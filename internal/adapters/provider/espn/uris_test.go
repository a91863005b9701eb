package espn

import (
	"testing"

	"sportsource/internal/core/resource"
	perr "sportsource/internal/platform/errors"
)

func TestRefID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ref  string
		want string
	}{
		{"http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/venues/3950", "3950"},
		{"http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/venues/3950?lang=en", "3950"},
		{"http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/seasons/2024/teams/99/", "99"},
		{"://not a uri", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := RefID(tc.ref); got != tc.want {
			t.Fatalf("RefID(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestSeasonURI(t *testing.T) {
	t.Parallel()

	got, err := SeasonURI(resource.SportFootballNCAA, 2024)
	if err != nil {
		t.Fatalf("SeasonURI: %v", err)
	}
	want := "http://sports.core.api.espn.com/v2/sports/football/leagues/college-football/seasons/2024"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIndexURIsCarryPagingLimit(t *testing.T) {
	t.Parallel()

	venues, err := VenuesIndexURI(resource.SportFootballNFL)
	if err != nil {
		t.Fatalf("VenuesIndexURI: %v", err)
	}
	if venues != "http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/venues?limit=100" {
		t.Fatalf("venues uri: %q", venues)
	}

	teams, err := TeamSeasonsIndexURI(resource.SportFootballNFL, 2023)
	if err != nil {
		t.Fatalf("TeamSeasonsIndexURI: %v", err)
	}
	if teams != "http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/seasons/2023/teams?limit=100" {
		t.Fatalf("teams uri: %q", teams)
	}
}

func TestLeaguePathUnknownSport(t *testing.T) {
	t.Parallel()

	_, err := SeasonURI(resource.Sport("cricket"), 2024)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
