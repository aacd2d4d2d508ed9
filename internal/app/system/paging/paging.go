// Package paging parses the page/limit query parameters used by the
// activity endpoints. Pages are 1-based; out-of-range values fall back
// to defaults rather than erroring.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the number of records per page when limit is absent.
const DefaultLimit = 20

// MaxLimit caps a caller-supplied limit.
const MaxLimit = 100

// Params holds the effective pagination values for a request.
type Params struct {
	Page  int
	Limit int
}

// Parse extracts page and limit from the request query.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Page = n
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = n
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}
	return p
}
