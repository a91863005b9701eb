// Package espn is the ESPN provider adapter: a caching, rate-limited fetch
// client plus the wire types the sourcing pipeline parses
package espn

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"sportsource/internal/core/resource"
	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"

	"golang.org/x/time/rate"
)

// defaultUpgradeHosts are provider hosts whose http refs are dialed as https.
// The upgrade happens at dial time only so cache keys stay stable across
// upgrade-policy changes.
var defaultUpgradeHosts = []string{
	"sports.core.api.espn.com",
	"site.api.espn.com",
	"a.espncdn.com",
}

// Options configures the fetch client
type Options struct {
	CacheDir     string
	ReadCache    bool
	ForceLive    bool
	Persist      bool
	RequestDelay time.Duration
	Timeout      time.Duration
	UpgradeHosts []string
}

// OptionsFromConfig reads fetch options from the CORE_FETCH_ env scope
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_FETCH_")
	return Options{
		CacheDir:     c.MayString("CACHE_DIR", "/var/cache/sportsource"),
		ReadCache:    c.MayBool("READ_CACHE", true),
		ForceLive:    c.MayBool("FORCE_LIVE", false),
		Persist:      c.MayBool("PERSIST", true),
		RequestDelay: c.MayDuration("REQUEST_DELAY", time.Second),
		Timeout:      c.MayDuration("TIMEOUT", 30*time.Second),
		UpgradeHosts: c.MayCSV("UPGRADE_HOSTS", defaultUpgradeHosts),
	}
}

// Outcome distinguishes how a fetch resolved. Absent covers the provider's
// non-success noise: the caller decides whether absence is fatal to its step.
type Outcome uint8

const (
	// OutcomeLive means bytes came from a live call
	OutcomeLive Outcome = iota

	// OutcomeCached means bytes came from the disk cache
	OutcomeCached

	// OutcomeAbsent means the provider answered non-2xx; no bytes, no error
	OutcomeAbsent
)

// Result is a fetch outcome with the resolved cache key
type Result struct {
	Body    []byte
	Outcome Outcome
	Key     string
}

// FetchOpts tunes a single fetch
type FetchOpts struct {
	// BypassCache skips the cache read (persist still happens)
	BypassCache bool

	// StripQuery drops the querystring from the identity URI, collapsing
	// paginated variants onto one cache entry
	StripQuery bool
}

// Client fetches provider documents with disk caching and a process-wide
// minimum inter-request interval. The provider throttles by IP and answers
// a generic 4xx rather than 429, so the client self-limits.
type Client struct {
	httpc   *http.Client
	limiter *rate.Limiter
	opt     Options
	upgrade map[string]struct{}
	log     logger.Logger
}

// New builds a Client; a zero RequestDelay disables pacing
func New(opt Options, log logger.Logger) *Client {
	if opt.Persist || opt.ReadCache {
		_ = os.MkdirAll(opt.CacheDir, 0o755)
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if opt.RequestDelay > 0 {
		lim = rate.NewLimiter(rate.Every(opt.RequestDelay), 1)
	}
	up := make(map[string]struct{}, len(opt.UpgradeHosts))
	for _, h := range opt.UpgradeHosts {
		up[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return &Client{
		httpc:   &http.Client{Timeout: opt.Timeout},
		limiter: lim,
		opt:     opt,
		upgrade: up,
		log:     log.With().Str("component", "espn").Logger(),
	}
}

// GetJSON fetches a document body, serving from the disk cache when allowed
func (c *Client) GetJSON(ctx context.Context, uri string, fo FetchOpts) (Result, error) {
	return c.get(ctx, uri, fo, ".json")
}

// GetImage fetches a binary image payload with the same cache/identity rules
// but an image extension on the stored file
func (c *Client) GetImage(ctx context.Context, uri string, fo FetchOpts) (Result, error) {
	return c.get(ctx, uri, fo, imageExt(uri))
}

func (c *Client) get(ctx context.Context, uri string, fo FetchOpts, ext string) (Result, error) {
	key := resource.Hash(uri, fo.StripQuery)
	cachePath := filepath.Join(c.opt.CacheDir, key+ext)

	if c.opt.ReadCache && !c.opt.ForceLive && !fo.BypassCache {
		if b, err := os.ReadFile(cachePath); err == nil {
			c.log.Debug().Str("key", key).Str("uri", uri).Msg("cache hit")
			return Result{Body: b, Outcome: OutcomeCached, Key: key}, nil
		}
	}

	// self-imposed pacing before every live call; cancellable
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "fetch pacing interrupted")
	}

	dial := c.dialURI(uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dial, nil)
	if err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "build request for %q", uri)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch %q", uri)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Str("uri", uri).Msg("non-success response; treating as absent")
		return Result{Outcome: OutcomeAbsent, Key: key}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read body for %q", uri)
	}

	if c.opt.Persist {
		// cache write failure never fails the fetch
		if werr := writeWithRetry(cachePath, body); werr != nil {
			c.log.Warn().Err(werr).Str("path", cachePath).Msg("cache persist failed")
		}
	}

	return Result{Body: body, Outcome: OutcomeLive, Key: key}, nil
}

// dialURI applies the http->https upgrade for allow-listed hosts
func (c *Client) dialURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.EqualFold(u.Scheme, "http") {
		if _, ok := c.upgrade[strings.ToLower(u.Hostname())]; ok {
			u.Scheme = "https"
			return u.String()
		}
	}
	return raw
}

// writeWithRetry tolerates concurrent-writer lock conflicts on the shared
// cache dir with a few linear-backoff attempts
func writeWithRetry(path string, body []byte) error {
	const attempts = 3
	var last error
	for i := 1; i <= attempts; i++ {
		last = os.WriteFile(path, body, 0o644)
		if last == nil {
			return nil
		}
		time.Sleep(time.Duration(i) * 50 * time.Millisecond)
	}
	return last
}

func imageExt(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ".png"
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		return ext
	}
	return ".png"
}
