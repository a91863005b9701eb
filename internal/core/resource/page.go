package resource

import (
	"net/url"
	"strconv"

	perr "sportsource/internal/platform/errors"
)

// NextPage rewrites the page and limit query parameters on a collection URI,
// preserving every other original parameter. The limit comes from the
// envelope's own reported page size, never a client-side assumption.
func NextPage(raw string, page, limit int) (string, error) {
	if page < 1 || limit < 1 {
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "next page: bad page=%d limit=%d", page, limit)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "next page: parse %q", raw)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
