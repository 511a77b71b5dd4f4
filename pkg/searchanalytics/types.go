// Package searchanalytics holds the Search Console query domain: row and
// request types, the paginated fetcher, filter shaping, and two-period
// row comparison. The remote API is reached only through the PageQuerier
// capability, so the package carries no transport dependency.
package searchanalytics

import (
	"fmt"
	"strings"
)

// Page size bounds for a single query request. The API caps one response
// at 25000 rows; anything below 100 just wastes quota on round trips.
const (
	MinPageSize = 100
	MaxPageSize = 25000
)

// RowKeySeparator joins dimension values into a RowKey. U+001F (unit
// separator) cannot appear in page URLs, queries, or country/device codes,
// so joined keys stay collision-free.
const RowKeySeparator = "\x1f"

// Row is one search-analytics result row: the dimension values in request
// order plus the four standard metrics. Rows are immutable once received.
type Row struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// Key returns the RowKey: the dimension values joined into a single
// comparable string. Two rows describe the same entity iff their keys
// are equal. Dimension order must be held constant for the lifetime of
// one fetch/compare operation.
func (r Row) Key() string {
	return strings.Join(r.Keys, RowKeySeparator)
}

// Request is the base query request held constant across pages of one
// fetch. StartRow and RowLimit are managed by the fetcher.
type Request struct {
	StartDate    string        `json:"startDate"`
	EndDate      string        `json:"endDate"`
	Dimensions   []string      `json:"dimensions,omitempty"`
	SearchType   string        `json:"searchType,omitempty"`
	FilterGroups []FilterGroup `json:"dimensionFilterGroups,omitempty"`
	RowLimit     int64         `json:"rowLimit,omitempty"`
	StartRow     int64         `json:"startRow,omitempty"`
}

// FilterGroup is a group of dimension filters combined with AND.
type FilterGroup struct {
	GroupType string   `json:"groupType,omitempty"`
	Filters   []Filter `json:"filters,omitempty"`
}

// Filter restricts one dimension by operator and expression.
type Filter struct {
	Dimension  string `json:"dimension"`
	Operator   string `json:"operator"`
	Expression string `json:"expression"`
}

// Site is one entry from the property listing.
type Site struct {
	SiteURL         string `json:"siteUrl"`
	PermissionLevel string `json:"permissionLevel"`
}

// ValidateProperty checks a property identifier before any network call.
// Two external forms exist: an absolute http(s):// URL-prefix property or
// a sc-domain:<domain> domain property. Whichever form the caller supplies
// is preserved verbatim; no normalization between the two.
func ValidateProperty(property string) error {
	switch {
	case property == "":
		return fmt.Errorf("property is required")
	case strings.HasPrefix(property, "http://"), strings.HasPrefix(property, "https://"):
		return nil
	case strings.HasPrefix(property, "sc-domain:"):
		if strings.TrimPrefix(property, "sc-domain:") == "" {
			return fmt.Errorf("invalid property %q: sc-domain: prefix without a domain", property)
		}
		return nil
	default:
		return fmt.Errorf("invalid property %q: want an http(s):// URL prefix or sc-domain:<domain>", property)
	}
}

// ClampPageSize forces a per-page size into [MinPageSize, MaxPageSize].
// Zero or negative values get the maximum, which minimizes round trips.
func ClampPageSize(size int) int {
	if size <= 0 {
		return MaxPageSize
	}
	if size < MinPageSize {
		return MinPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
