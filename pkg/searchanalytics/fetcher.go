package searchanalytics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for paginated fetching.
var (
	gscPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gsc_pages_fetched_total",
		Help: "Total search-analytics pages fetched",
	})

	gscRowsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gsc_rows_fetched_total",
		Help: "Total search-analytics rows fetched",
	})

	gscFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gsc_fetch_duration_seconds",
		Help:    "Duration of a full multi-page fetch",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// PageQuerier is the remote capability the fetcher depends on: issue one
// query request and return its rows. Implementations own transport,
// authentication, and retries; the fetcher sees either rows or a final
// error.
type PageQuerier interface {
	QueryPage(ctx context.Context, property string, req Request) ([]Row, error)
}

// QuerierFunc adapts a plain function to PageQuerier.
type QuerierFunc func(ctx context.Context, property string, req Request) ([]Row, error)

// QueryPage implements PageQuerier.
func (f QuerierFunc) QueryPage(ctx context.Context, property string, req Request) ([]Row, error) {
	return f(ctx, property, req)
}

// FetchOptions configures one multi-page fetch.
type FetchOptions struct {
	// TargetLimit is the total number of rows wanted across all pages.
	TargetLimit int

	// PageSize is the per-request row limit, clamped to
	// [MinPageSize, MaxPageSize]. Zero means MaxPageSize.
	PageSize int

	// OnPage, if set, is called after each page with the cumulative row
	// count. Used for CLI progress reporting.
	OnPage func(fetched int)
}

// DefaultFetchOptions returns options for a single full page.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		TargetLimit: 1000,
		PageSize:    MaxPageSize,
	}
}

// FetchAll accumulates rows from the remote query endpoint page by page
// until the target limit is met or the source is exhausted.
//
// Pages are strictly sequential: the next offset depends on the observed
// length of the previous page. An empty page ends the fetch; so does a
// short page, since the remote has no more data even though its contract
// does not say so explicitly. The result never exceeds opts.TargetLimit
// and may be shorter if the source runs out. Any page error aborts the
// whole fetch; partial rows are discarded.
func FetchAll(ctx context.Context, q PageQuerier, property string, base Request, opts FetchOptions) ([]Row, error) {
	if err := ValidateProperty(property); err != nil {
		return nil, err
	}
	if opts.TargetLimit <= 0 {
		return nil, nil
	}

	pageSize := ClampPageSize(opts.PageSize)
	start := time.Now()
	defer func() {
		gscFetchDuration.Observe(time.Since(start).Seconds())
	}()

	log.Debug().
		Str("property", property).
		Str("range", base.StartDate+".."+base.EndDate).
		Int("target_limit", opts.TargetLimit).
		Int("page_size", pageSize).
		Msg("Starting paginated fetch")

	var collected []Row
	var offset int64

	for {
		req := base
		req.RowLimit = int64(pageSize)
		req.StartRow = offset

		page, err := q.QueryPage(ctx, property, req)
		if err != nil {
			return nil, fmt.Errorf("query page at row %d: %w", offset, err)
		}

		gscPagesFetchedTotal.Inc()
		gscRowsFetchedTotal.Add(float64(len(page)))

		if len(page) == 0 {
			// End of data, not an error.
			break
		}

		collected = append(collected, page...)
		offset += int64(len(page))

		if opts.OnPage != nil {
			opts.OnPage(len(collected))
		}

		log.Debug().
			Str("property", property).
			Int("page_rows", len(page)).
			Int("collected", len(collected)).
			Msg("Fetched page")

		if len(page) < pageSize {
			break
		}
		if len(collected) >= opts.TargetLimit {
			break
		}
	}

	if len(collected) > opts.TargetLimit {
		collected = collected[:opts.TargetLimit]
	}

	log.Info().
		Str("property", property).
		Int("rows", len(collected)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return collected, nil
}
