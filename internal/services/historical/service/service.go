// Package service plans historical season backfills as ordered tiers of
// resource index jobs with staggered deferred dispatch
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sportsource/internal/adapters/provider/espn"
	"sportsource/internal/core/resource"
	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit/repokit"
	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/services/historical/domain"
	"sportsource/internal/services/historical/repo"
)

// Config holds the per-tier deferral defaults. These are the second rung of
// delay resolution; a request-supplied delay wins over all of them.
type Config struct {
	SeasonDelay        time.Duration
	VenueDelay         time.Duration
	TeamSeasonDelay    time.Duration
	AthleteSeasonDelay time.Duration
}

// FromConfig reads CORE_HISTORICAL_* settings; absent keys keep the
// built-in stagger of 0/30/60/240 minutes
func FromConfig(cfg config.Conf) Config {
	d := cfg.Prefix("CORE_HISTORICAL_")
	return Config{
		SeasonDelay:        d.MayDuration("DELAY_SEASON", 0),
		VenueDelay:         d.MayDuration("DELAY_VENUE", 30*time.Minute),
		TeamSeasonDelay:    d.MayDuration("DELAY_TEAM_SEASON", 60*time.Minute),
		AthleteSeasonDelay: d.MayDuration("DELAY_ATHLETE_SEASON", 240*time.Minute),
	}
}

// Service schedules tiered season backfills
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.Repo]
	Sched  jobs.Queue
	Cfg    Config
	Log    *logger.Logger

	// Lock takes the season advisory lock inside the force path's tx;
	// swapped in tests
	Lock func(ctx context.Context, q repokit.Queryer, provider, sport string, year int) error
}

// New constructs the historical service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], sched jobs.Queue, cfg Config) *Service {
	if db == nil {
		panic("historical.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("historical.Service requires a non nil Repo binder")
	}
	if sched == nil {
		panic("historical.Service requires a non nil job queue")
	}
	return &Service{
		DB:     db,
		Binder: binder,
		Sched:  sched,
		Cfg:    cfg,
		Log:    logger.Named("historical"),
		Lock:   repo.AcquireSeasonLock,
	}
}

// nowUTC is swapped in tests for deterministic ordinals
var nowUTC = func() time.Time { return time.Now().UTC() }

// Ordinal packs a millisecond timestamp and a tier index into one sortable
// int64: yyyyMMddHHmmssfff * 100 + tier. Concurrent requests in the same
// clock tick still collide only within a tier, and the unique index on
// ordinal turns that collision into an insert failure instead of a dup.
func Ordinal(ts time.Time, tierIndex int) int64 {
	prefix, _ := strconv.ParseInt(ts.Format("20060102150405"), 10, 64)
	ms := int64(ts.Nanosecond() / int(time.Millisecond))
	return (prefix*1000+ms)*100 + int64(tierIndex)
}

// ScheduleBackfill persists one job row per tier, then enqueues the
// deferred dispatches. All rows commit before any dispatch is scheduled.
func (s *Service) ScheduleBackfill(ctx context.Context, req domain.BackfillRequest) (domain.BackfillResult, error) {
	if req.Provider != string(resource.ProviderESPN) {
		return domain.BackfillResult{}, perr.Newf(perr.ErrorCodeInvalidArgument, "unknown provider %q", req.Provider)
	}
	if req.SeasonYear < 1900 || req.SeasonYear > 2100 {
		return domain.BackfillResult{}, perr.Newf(perr.ErrorCodeValidation, "season year %d out of range", req.SeasonYear)
	}
	for dt, d := range req.Delays {
		if d < 0 {
			return domain.BackfillResult{}, perr.Newf(perr.ErrorCodeValidation, "negative delay for tier %s", dt)
		}
	}

	tiers, err := s.tiers(req)
	if err != nil {
		return domain.BackfillResult{}, err
	}

	// idempotent replay: a season already scheduled answers with its
	// original correlation id and plans nothing new
	if !req.Force {
		corr, ok, err := s.Binder.Bind(s.DB).SeasonCorrelation(ctx, req.Provider, req.Sport, req.SeasonYear)
		if err != nil {
			return domain.BackfillResult{}, err
		}
		if ok {
			s.Log.Info().
				Str("correlation_id", corr).
				Int("season_year", req.SeasonYear).
				Msg("season already scheduled, replaying correlation id")
			return domain.BackfillResult{CorrelationID: corr, Replayed: true}, nil
		}
	}

	corr := req.CorrelationID
	if corr == "" {
		corr = uuid.NewString()
	}

	ts := nowUTC()
	rows := make([]domain.ResourceIndexJob, 0, len(tiers))
	for _, tier := range tiers {
		rows = append(rows, domain.ResourceIndexJob{
			ID:           uuid.NewString(),
			Ordinal:      Ordinal(ts, tier.Index),
			Name:         backfillName(req, tier),
			Provider:     req.Provider,
			Sport:        req.Sport,
			DocumentType: string(tier.DocumentType),
			Shape:        tier.Shape.String(),
			URI:          tier.URI,
			URLHash:      resource.Hash(tier.URI, true),
			SeasonYear:   req.SeasonYear,
			IsEnabled:    true,
			CreatedBy:    corr, CreatedUTC: ts,
			ModifiedBy: corr, ModifiedUTC: ts,
		})
	}

	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		if req.Force {
			if err := s.Lock(ctx, q, req.Provider, req.Sport, req.SeasonYear); err != nil {
				return err
			}
		}
		for _, row := range rows {
			if err := r.InsertJob(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.BackfillResult{}, err
	}

	res := domain.BackfillResult{CorrelationID: corr, JobsPersisted: len(rows)}
	for i, tier := range tiers {
		payload := eventing.DocumentRequested{
			CorrelationID:      corr,
			Provider:           req.Provider,
			Sport:              req.Sport,
			DocumentType:       string(tier.DocumentType),
			URI:                tier.URI,
			SeasonYear:         req.SeasonYear,
			BypassCache:        true,
			ResourceIndexJobID: rows[i].ID,
		}
		if _, err := s.Sched.Schedule(ctx, eventing.KindDispatchDocument, payload, corr, tier.Delay); err != nil {
			return res, perr.Wrapf(err, perr.ErrorCodeDB, "schedule tier %s", tier.DocumentType)
		}
		res.Scheduled++
	}

	s.Log.Info().
		Str("correlation_id", corr).
		Str("sport", req.Sport).
		Int("season_year", req.SeasonYear).
		Int("tiers", res.Scheduled).
		Bool("force", req.Force).
		Msg("season backfill scheduled")
	return res, nil
}

// tiers builds the fixed ladder with resolved delays
func (s *Service) tiers(req domain.BackfillRequest) ([]domain.Tier, error) {
	sport := resource.Sport(req.Sport)

	seasonURI, err := espn.SeasonURI(sport, req.SeasonYear)
	if err != nil {
		return nil, err
	}
	venuesURI, err := espn.VenuesIndexURI(sport)
	if err != nil {
		return nil, err
	}
	teamsURI, err := espn.TeamSeasonsIndexURI(sport, req.SeasonYear)
	if err != nil {
		return nil, err
	}
	athletesURI, err := espn.AthleteSeasonsIndexURI(sport, req.SeasonYear)
	if err != nil {
		return nil, err
	}

	return []domain.Tier{
		{Index: 0, DocumentType: resource.DocSeason, Shape: resource.ShapeLeaf, URI: seasonURI,
			Delay: s.delay(req, resource.DocSeason, s.Cfg.SeasonDelay)},
		{Index: 1, DocumentType: resource.DocVenue, Shape: resource.ShapeIndex, URI: venuesURI,
			Delay: s.delay(req, resource.DocVenue, s.Cfg.VenueDelay)},
		{Index: 2, DocumentType: resource.DocTeamSeason, Shape: resource.ShapeIndex, URI: teamsURI,
			Delay: s.delay(req, resource.DocTeamSeason, s.Cfg.TeamSeasonDelay)},
		{Index: 3, DocumentType: resource.DocAthleteSeason, Shape: resource.ShapeIndex, URI: athletesURI,
			Delay: s.delay(req, resource.DocAthleteSeason, s.Cfg.AthleteSeasonDelay)},
	}, nil
}

// delay resolves request override, then config, which already carries the
// built-in fallback
func (s *Service) delay(req domain.BackfillRequest, dt resource.DocumentType, configured time.Duration) time.Duration {
	if d, ok := req.Delays[dt]; ok {
		return d
	}
	return configured
}

func backfillName(req domain.BackfillRequest, tier domain.Tier) string {
	return req.Provider + "." + req.Sport + "." + strconv.Itoa(req.SeasonYear) + "." + string(tier.DocumentType)
}
