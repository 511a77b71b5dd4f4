package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Sternrassler/gsc-client/pkg/daterange"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

// writeJSON renders a report to the command's stdout.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseMode validates a --range flag value.
func parseMode(s string) (daterange.Mode, error) {
	switch daterange.Mode(s) {
	case daterange.ModeLast7d, daterange.ModeLast28d, daterange.ModeLast3mo,
		daterange.ModeLast12mo, daterange.ModeCustom:
		return daterange.Mode(s), nil
	default:
		return "", fmt.Errorf("invalid range %q: want last7d, last28d, last3mo, last12mo, or custom", s)
	}
}

// parsePolicy validates a --compare flag value.
func parsePolicy(s string) (daterange.Policy, error) {
	switch daterange.Policy(s) {
	case daterange.PolicyPreviousPeriod, daterange.PolicyPreviousYear, daterange.PolicyCustom:
		return daterange.Policy(s), nil
	default:
		return "", fmt.Errorf("invalid comparison %q: want previous_period, previous_year, or custom", s)
	}
}

// baseRequest assembles the query request held constant across pages.
func baseRequest(r daterange.Range, dimensions []string, searchType string, filterSpecs []string) (searchanalytics.Request, error) {
	groups, err := searchanalytics.ParseFilters(filterSpecs)
	if err != nil {
		return searchanalytics.Request{}, err
	}
	return searchanalytics.Request{
		StartDate:    r.StartDate(),
		EndDate:      r.EndDate(),
		Dimensions:   dimensions,
		SearchType:   searchType,
		FilterGroups: groups,
	}, nil
}

// fetchOptions wires a stderr progress bar into the fetcher.
func fetchOptions(limit, pageSize int, label string) searchanalytics.FetchOptions {
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return searchanalytics.FetchOptions{
		TargetLimit: limit,
		PageSize:    pageSize,
		OnPage: func(fetched int) {
			_ = bar.Set(fetched)
		},
	}
}
