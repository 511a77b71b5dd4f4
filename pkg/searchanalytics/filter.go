package searchanalytics

import (
	"fmt"
	"strings"
)

// Dimension filter operators accepted by the query endpoint.
var validOperators = map[string]bool{
	"contains":       true,
	"equals":         true,
	"notContains":    true,
	"notEquals":      true,
	"includingRegex": true,
	"excludingRegex": true,
}

// ParseFilters turns "dimension operator expression" specs into a single
// AND-combined filter group, e.g. "query contains shoes" or
// "page equals https://example.com/pricing". The expression may contain
// spaces. An empty spec list yields no groups, so the filter field is
// simply omitted from the request.
func ParseFilters(specs []string) ([]FilterGroup, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	filters := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(strings.TrimSpace(spec), " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid filter %q: want \"dimension operator expression\"", spec)
		}
		if !validOperators[parts[1]] {
			return nil, fmt.Errorf("invalid filter %q: unknown operator %q", spec, parts[1])
		}
		filters = append(filters, Filter{
			Dimension:  parts[0],
			Operator:   parts[1],
			Expression: parts[2],
		})
	}

	return []FilterGroup{{GroupType: "and", Filters: filters}}, nil
}
