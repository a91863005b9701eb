package service

import (
	"context"
	"encoding/json"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/eventing"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/services/canonical/domain"
)

// SeasonSourced is published when a season metadata document lands. Seasons
// carry no canonical storage of their own; downstream consumers key their
// own state off (sport, year).
type SeasonSourced struct {
	Sport       string `json:"sport"`
	Year        string `json:"year"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Ref         string `json:"ref"`
}

// KindSeasonSourced is the season metadata event kind
const KindSeasonSourced = "season.sourced"

// SeasonProcessor validates season metadata documents and announces them
type SeasonProcessor struct{}

var _ domain.Processor = SeasonProcessor{}

// Process parses one season document and publishes it
func (SeasonProcessor) Process(ctx context.Context, _ domain.StorageRepo, bus eventing.Publisher, doc domain.Document) error {
	var dto espn.SeasonDTO
	if err := json.Unmarshal(doc.Body, &dto); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "season document malformed")
	}
	if dto.Year.String() == "" {
		return perr.New(perr.ErrorCodeJSON, "season document missing year")
	}
	return publish(ctx, bus, KindSeasonSourced, SeasonSourced{
		Sport:       doc.Cmd.Sport,
		Year:        dto.Year.String(),
		StartDate:   dto.StartDate,
		EndDate:     dto.EndDate,
		DisplayName: dto.DisplayName,
		Ref:         doc.Cmd.URI,
	}, doc.Cmd.CorrelationID, "processor.season")
}
