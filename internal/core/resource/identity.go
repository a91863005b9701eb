package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Identity normalizes a URI into its cache/idempotency form: lowercased
// scheme and host, optionally with the querystring and fragment dropped
func Identity(raw string, stripQuery bool) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		if stripQuery {
			if i := strings.IndexByte(raw, '?'); i >= 0 {
				return raw[:i]
			}
		}
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if stripQuery {
		u.RawQuery = ""
	}
	return u.String()
}

// Hash returns the deterministic id for a URI: sha256 hex of its identity
// form. This is both the cache key and the item id carried on fan-out
// commands, so it must stay stable across releases.
func Hash(raw string, stripQuery bool) string {
	sum := sha256.Sum256([]byte(Identity(raw, stripQuery)))
	return hex.EncodeToString(sum[:])
}
