package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "sportsource/internal/platform/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandleSuccessEnvelope(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return OK(map[string]string{"state": "queued"})
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/x", nil))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.StatusCode != stdhttp.StatusOK || env.Error != "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestHandleErrorBodyMapsStatus(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return Error(perr.Newf(perr.ErrorCodeValidation, "count must be at least 1"))
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/x", nil))

	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != perr.ErrorCodeValidation {
		t.Fatalf("code = %v, want validation", env.Code)
	}
	if !strings.Contains(env.Error, "at least 1") {
		t.Fatalf("error message lost: %q", env.Error)
	}
}

func TestHandleNoContentSkipsBody(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response { return NoContent() })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodDelete, "/x", nil))

	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body not empty: %q", rec.Body.String())
	}
}

func TestJSONHandlerBindsAndValidates(t *testing.T) {
	type in struct {
		Queue string `json:"queue" validate:"required"`
	}
	h := JSONHandler(func(r *stdhttp.Request, v in) (any, error) {
		return map[string]string{"queue": v.Queue}, nil
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/x", strings.NewReader(`{"queue":"dead"}`)))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/x", strings.NewReader(`{}`)))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400 on missing queue", rec.Code)
	}
}
