package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"sportsource/internal/core/resource"
	"sportsource/internal/eventing"
	"sportsource/internal/jobs"
	"sportsource/internal/modkit/repokit"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/store"
	"sportsource/internal/platform/testkit"
	"sportsource/internal/services/historical/domain"
)

// fakeTx satisfies repokit.TxRunner; queries are never issued directly in
// these tests, only through the bound fake repo
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	panic("unexpected Exec")
}
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error) { panic("unexpected Query") }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row        { panic("unexpected QueryRow") }
func (f fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(f)
}

// journal records the interleaving of persists and schedules
type journal struct {
	ops []string
}

type fakeRepo struct {
	j          *journal
	seasonCorr string
}

func (r *fakeRepo) SeasonCorrelation(_ context.Context, _, _ string, _ int) (string, bool, error) {
	return r.seasonCorr, r.seasonCorr != "", nil
}

func (r *fakeRepo) InsertJob(_ context.Context, job domain.ResourceIndexJob) error {
	r.j.ops = append(r.j.ops, "insert:"+job.DocumentType)
	return nil
}

func (r *fakeRepo) RecordPage(context.Context, string, int, int, int) error { return nil }
func (r *fakeRepo) MarkCompleted(context.Context, string) error             { return nil }

type fakeQueue struct {
	j      *journal
	delays map[string]time.Duration
}

func (q *fakeQueue) Enqueue(_ context.Context, kind string, _ any, _ string) (string, error) {
	q.j.ops = append(q.j.ops, "enqueue:"+kind)
	return "job-x", nil
}

func (q *fakeQueue) Schedule(_ context.Context, kind string, payload any, _ string, delay time.Duration) (string, error) {
	q.j.ops = append(q.j.ops, "schedule:"+kind)
	if q.delays == nil {
		q.delays = map[string]time.Duration{}
	}
	if req, ok := payload.(eventing.DocumentRequested); ok {
		q.delays[req.DocumentType] = delay
	}
	return "job-x", nil
}

var _ jobs.Queue = (*fakeQueue)(nil)

func newService(t *testing.T, repo *fakeRepo, queue *fakeQueue) *Service {
	t.Helper()
	svc := New(fakeTx{}, repokit.BindFunc[domain.Repo](func(repokit.Queryer) domain.Repo { return repo }), queue, Config{
		SeasonDelay:        0,
		VenueDelay:         30 * time.Minute,
		TeamSeasonDelay:    60 * time.Minute,
		AthleteSeasonDelay: 240 * time.Minute,
	})
	svc.Lock = func(context.Context, repokit.Queryer, string, string, int) error { return nil }
	return svc
}

func request() domain.BackfillRequest {
	return domain.BackfillRequest{
		Provider:   string(resource.ProviderESPN),
		Sport:      string(resource.SportFootballNCAA),
		SeasonYear: 2024,
	}
}

func TestOrdinal_PacksTimestampAndTier(t *testing.T) {
	ts := time.Date(2024, 8, 1, 12, 0, 0, 123*int(time.Millisecond), time.UTC)
	if got := Ordinal(ts, 2); got != 2024080112000012302 {
		t.Fatalf("Ordinal = %d", got)
	}
	// same tick, different tiers never collide
	if Ordinal(ts, 0) == Ordinal(ts, 1) {
		t.Fatal("tiers collided")
	}
}

func TestScheduleBackfill_PersistsAllTiersBeforeScheduling(t *testing.T) {
	j := &journal{}
	repo := &fakeRepo{j: j}
	queue := &fakeQueue{j: j}
	svc := newService(t, repo, queue)

	ts := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	testkit.Swap(t, &nowUTC, func() time.Time { return ts })

	res, err := svc.ScheduleBackfill(context.Background(), request())
	if err != nil {
		t.Fatalf("ScheduleBackfill: %v", err)
	}
	if res.JobsPersisted != 4 || res.Scheduled != 4 || res.Replayed {
		t.Fatalf("result = %+v", res)
	}
	if res.CorrelationID == "" {
		t.Fatal("missing correlation id")
	}

	// every insert strictly precedes every schedule
	lastInsert, firstSchedule := -1, len(j.ops)
	for i, op := range j.ops {
		if strings.HasPrefix(op, "insert:") && i > lastInsert {
			lastInsert = i
		}
		if strings.HasPrefix(op, "schedule:") && i < firstSchedule {
			firstSchedule = i
		}
	}
	if lastInsert > firstSchedule {
		t.Fatalf("a schedule ran before persistence finished: %v", j.ops)
	}
	if want := []string{"insert:season", "insert:venue", "insert:team-season", "insert:athlete-season"}; len(j.ops) < 4 {
		t.Fatalf("ops = %v, want prefix %v", j.ops, want)
	}
}

func TestScheduleBackfill_ReplayReturnsOriginalCorrelation(t *testing.T) {
	j := &journal{}
	repo := &fakeRepo{j: j, seasonCorr: "corr-original"}
	queue := &fakeQueue{j: j}
	svc := newService(t, repo, queue)

	res, err := svc.ScheduleBackfill(context.Background(), request())
	if err != nil {
		t.Fatalf("ScheduleBackfill: %v", err)
	}
	if !res.Replayed || res.CorrelationID != "corr-original" {
		t.Fatalf("result = %+v", res)
	}
	if len(j.ops) != 0 {
		t.Fatalf("replay must plan nothing, ops = %v", j.ops)
	}
}

func TestScheduleBackfill_ForceTakesSeasonLock(t *testing.T) {
	j := &journal{}
	repo := &fakeRepo{j: j, seasonCorr: "corr-original"}
	queue := &fakeQueue{j: j}
	svc := newService(t, repo, queue)

	locked := false
	svc.Lock = func(context.Context, repokit.Queryer, string, string, int) error {
		locked = true
		return nil
	}

	req := request()
	req.Force = true
	res, err := svc.ScheduleBackfill(context.Background(), req)
	if err != nil {
		t.Fatalf("ScheduleBackfill: %v", err)
	}
	if !locked {
		t.Fatal("force path must take the season lock")
	}
	if res.Replayed || res.JobsPersisted != 4 {
		t.Fatalf("force must re-plan: %+v", res)
	}
}

func TestScheduleBackfill_RequestDelayOverridesConfig(t *testing.T) {
	j := &journal{}
	queue := &fakeQueue{j: j}
	svc := newService(t, &fakeRepo{j: j}, queue)

	req := request()
	req.Delays = map[resource.DocumentType]time.Duration{resource.DocVenue: 5 * time.Minute}
	if _, err := svc.ScheduleBackfill(context.Background(), req); err != nil {
		t.Fatalf("ScheduleBackfill: %v", err)
	}
	if got := queue.delays[string(resource.DocVenue)]; got != 5*time.Minute {
		t.Fatalf("venue delay = %v, want request override", got)
	}
	if got := queue.delays[string(resource.DocTeamSeason)]; got != 60*time.Minute {
		t.Fatalf("team-season delay = %v, want config default", got)
	}
}

func TestScheduleBackfill_Validation(t *testing.T) {
	svc := newService(t, &fakeRepo{j: &journal{}}, &fakeQueue{j: &journal{}})

	req := request()
	req.Provider = "nope"
	if _, err := svc.ScheduleBackfill(context.Background(), req); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown provider: %v", err)
	}

	req = request()
	req.Delays = map[resource.DocumentType]time.Duration{resource.DocVenue: -time.Minute}
	if _, err := svc.ScheduleBackfill(context.Background(), req); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("negative delay: %v", err)
	}

	req = request()
	req.SeasonYear = 123
	if _, err := svc.ScheduleBackfill(context.Background(), req); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad year: %v", err)
	}
}
