package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, opt Options) *Client {
	t.Helper()
	if opt.CacheDir == "" {
		opt.CacheDir = t.TempDir()
	}
	return New(opt, zerolog.Nop())
}

func TestGetJSON_CacheIdempotence(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":"3950"}`))
	}))
	defer srv.Close()

	c := testClient(t, Options{ReadCache: true, Persist: true})

	first, err := c.GetJSON(context.Background(), srv.URL+"/venues/3950", FetchOpts{})
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.Outcome != OutcomeLive {
		t.Fatalf("first fetch outcome = %v, want live", first.Outcome)
	}

	second, err := c.GetJSON(context.Background(), srv.URL+"/venues/3950", FetchOpts{})
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second.Outcome != OutcomeCached {
		t.Fatalf("second fetch outcome = %v, want cached", second.Outcome)
	}
	if string(first.Body) != string(second.Body) {
		t.Fatalf("cached body differs: %q vs %q", first.Body, second.Body)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected exactly one live call, got %d", n)
	}
}

func TestGetJSON_BypassForcesLive(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, Options{ReadCache: true, Persist: true})

	for i := 0; i < 2; i++ {
		res, err := c.GetJSON(context.Background(), srv.URL+"/x", FetchOpts{BypassCache: true})
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if res.Outcome != OutcomeLive {
			t.Fatalf("fetch %d outcome = %v, want live", i, res.Outcome)
		}
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("bypass should go live both times, got %d calls", n)
	}
}

func TestGetJSON_NonSuccessIsAbsentNotError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, Options{})
	res, err := c.GetJSON(context.Background(), srv.URL+"/throttled", FetchOpts{})
	if err != nil {
		t.Fatalf("non-2xx must not error: %v", err)
	}
	if res.Outcome != OutcomeAbsent || res.Body != nil {
		t.Fatalf("expected absent outcome with no body, got %+v", res)
	}
}

func TestGetJSON_StripQuerySharesCacheEntry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"count":0}`))
	}))
	defer srv.Close()

	c := testClient(t, Options{ReadCache: true, Persist: true})

	if _, err := c.GetJSON(context.Background(), srv.URL+"/venues?page=1", FetchOpts{StripQuery: true}); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	res, err := c.GetJSON(context.Background(), srv.URL+"/venues?page=2", FetchOpts{StripQuery: true})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if res.Outcome != OutcomeCached {
		t.Fatalf("stripped variants should share a cache entry, got %v", res.Outcome)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected one live call, got %d", n)
	}
}

func TestGetJSON_CancelledContextPropagates(t *testing.T) {
	t.Parallel()

	c := testClient(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GetJSON(ctx, "http://127.0.0.1:1/never", FetchOpts{}); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func TestDialURI_UpgradesAllowListedHostsOnly(t *testing.T) {
	t.Parallel()

	c := testClient(t, Options{UpgradeHosts: defaultUpgradeHosts})

	got := c.dialURI("http://sports.core.api.espn.com/v2/venues/3950")
	if got != "https://sports.core.api.espn.com/v2/venues/3950" {
		t.Fatalf("allow-listed host not upgraded: %q", got)
	}

	keep := "http://other.example.com/v2/venues/3950"
	if got := c.dialURI(keep); got != keep {
		t.Fatalf("non-listed host must not be upgraded: %q", got)
	}

	already := "https://sports.core.api.espn.com/x"
	if got := c.dialURI(already); got != already {
		t.Fatalf("https passthrough broken: %q", got)
	}
}

func TestImageExt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"http://a.espncdn.com/i/teamlogos/ncaa/500/333.png": ".png",
		"http://a.espncdn.com/i/venues/3950.JPG":            ".jpg",
		"http://a.espncdn.com/i/venues/3950":                ".png",
	}
	for uri, want := range cases {
		if got := imageExt(uri); got != want {
			t.Fatalf("imageExt(%q) = %q, want %q", uri, got, want)
		}
	}
}
