package espn

import (
	"encoding/json"

	perr "sportsource/internal/platform/errors"
)

// IndexItem is one entry in a collection envelope
type IndexItem struct {
	Ref string      `json:"$ref"`
	ID  json.Number `json:"id,omitempty"`
}

// IndexPage is the provider's paginated-collection envelope
type IndexPage struct {
	Count     int         `json:"count"`
	PageIndex int         `json:"pageIndex"`
	PageSize  int         `json:"pageSize"`
	PageCount int         `json:"pageCount"`
	Items     []IndexItem `json:"items"`
}

// ParseIndex decodes a collection envelope. A malformed index page cannot be
// partially trusted, so callers abort the crawl on error.
func ParseIndex(b []byte) (IndexPage, error) {
	var p IndexPage
	if err := json.Unmarshal(b, &p); err != nil {
		return IndexPage{}, perr.Wrap(err, perr.ErrorCodeJSON, "parse index envelope")
	}
	return p, nil
}
