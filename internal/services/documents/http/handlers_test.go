package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sportsource/internal/eventing"

	"github.com/go-chi/chi/v5"
)

type fakeQueue struct {
	kind    string
	payload any
	corr    string
}

func (q *fakeQueue) Enqueue(_ context.Context, kind string, payload any, corr string) (string, error) {
	q.kind, q.payload, q.corr = kind, payload, corr
	return "job-1", nil
}

func (q *fakeQueue) Schedule(context.Context, string, any, string, time.Duration) (string, error) {
	return "", nil
}

func TestRequestEnqueuesDispatch(t *testing.T) {
	q := &fakeQueue{}
	r := chi.NewRouter()
	Register(r, q)

	body := `{"sourceProvider":"espn","sport":"football-ncaa","documentType":"venue",` +
		`"uri":"http://sports.core.api.espn.com/v2/sports/football/leagues/college-football/venues",` +
		`"correlationId":"corr-9"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodPost, "/documents/request", strings.NewReader(body)))

	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if q.kind != eventing.KindDispatchDocument {
		t.Fatalf("kind = %q", q.kind)
	}
	req, ok := q.payload.(eventing.DocumentRequested)
	if !ok {
		t.Fatalf("payload type %T", q.payload)
	}
	if req.CorrelationID != "corr-9" || req.DocumentType != "venue" {
		t.Fatalf("payload %+v", req)
	}

	var env struct {
		Data struct {
			JobID string `json:"jobId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.JobID != "job-1" {
		t.Fatalf("jobId = %q", env.Data.JobID)
	}
}

func TestRequestGeneratesCorrelationID(t *testing.T) {
	q := &fakeQueue{}
	r := chi.NewRouter()
	Register(r, q)

	body := `{"sourceProvider":"espn","sport":"football-nfl","documentType":"franchise",` +
		`"uri":"http://sports.core.api.espn.com/v2/sports/football/leagues/nfl/franchises"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodPost, "/documents/request", strings.NewReader(body)))

	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if q.corr == "" {
		t.Fatal("correlation id not generated")
	}
}

func TestRequestRejectsMissingURI(t *testing.T) {
	q := &fakeQueue{}
	r := chi.NewRouter()
	Register(r, q)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(
		stdhttp.MethodPost, "/documents/request",
		strings.NewReader(`{"sourceProvider":"espn","sport":"football-ncaa","documentType":"venue"}`)))

	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if q.kind != "" {
		t.Fatal("nothing should be enqueued on validation failure")
	}
}
