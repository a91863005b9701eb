package espn

import (
	"fmt"
	"net/url"
	"strings"

	"sportsource/internal/core/resource"
	perr "sportsource/internal/platform/errors"
)

const coreAPIBase = "http://sports.core.api.espn.com/v2/sports"

// leaguePath maps a sport to the provider's sport/league path pair
func leaguePath(sport resource.Sport) (string, error) {
	switch sport {
	case resource.SportFootballNCAA:
		return "football/leagues/college-football", nil
	case resource.SportFootballNFL:
		return "football/leagues/nfl", nil
	default:
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "no league path for sport %q", sport)
	}
}

// RefID extracts the provider id from a $ref URI: the last non-empty path
// segment, querystring ignored. Empty when the ref is unparseable.
func RefID(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}

// SeasonURI is the leaf document for one season's metadata
func SeasonURI(sport resource.Sport, year int) (string, error) {
	lp, err := leaguePath(sport)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/seasons/%d", coreAPIBase, lp, year), nil
}

// VenuesIndexURI is the venues collection for a league
func VenuesIndexURI(sport resource.Sport) (string, error) {
	lp, err := leaguePath(sport)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/venues?limit=100", coreAPIBase, lp), nil
}

// TeamSeasonsIndexURI is the team collection for one season
func TeamSeasonsIndexURI(sport resource.Sport, year int) (string, error) {
	lp, err := leaguePath(sport)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/seasons/%d/teams?limit=100", coreAPIBase, lp, year), nil
}

// AthleteSeasonsIndexURI is the athlete collection for one season
func AthleteSeasonsIndexURI(sport resource.Sport, year int) (string, error) {
	lp, err := leaguePath(sport)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/seasons/%d/athletes?limit=100", coreAPIBase, lp, year), nil
}
