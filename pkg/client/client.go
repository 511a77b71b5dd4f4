// Package client provides the Search Console API transport: the three
// remote operations (search-analytics query, site listing, URL
// inspection) with rate limiting, retries, and error classification.
// It implements the capability interfaces the core packages depend on.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"

	"github.com/Sternrassler/gsc-client/pkg/ratelimit"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

// Prometheus metrics for Search Console operations.
var (
	gscRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_requests_total",
		Help: "Total Search Console requests by operation and outcome",
	}, []string{"operation", "status"})

	gscRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gsc_request_duration_seconds",
		Help:    "Search Console request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	gscErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_errors_total",
		Help: "Total Search Console errors by class",
	}, []string{"class"})
)

// Client is the Search Console API client.
type Client struct {
	svc     *searchconsole.Service
	limiter *ratelimit.Limiter
	config  Config
	logger  zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// CredentialsFile is the path to a service account key file.
	CredentialsFile string

	// CredentialsJSON is an inline service account key. Takes precedence
	// over CredentialsFile.
	CredentialsJSON []byte

	// UserAgent identifies this application to the API (required).
	UserAgent string

	// Endpoint overrides the API base URL and disables authentication.
	// Used against the mock server in tests.
	Endpoint string

	// QPS and Burst configure the client-side request gate.
	QPS   float64
	Burst int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		QPS:       ratelimit.DefaultQPS,
		Burst:     ratelimit.DefaultBurst,
	}
}

// New creates a new Search Console client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Endpoint == "" && cfg.CredentialsFile == "" && len(cfg.CredentialsJSON) == 0 {
		return nil, fmt.Errorf("credentials are required (or an endpoint override for tests)")
	}

	opts := []option.ClientOption{
		option.WithUserAgent(cfg.UserAgent),
	}
	switch {
	case cfg.Endpoint != "":
		opts = append(opts,
			option.WithEndpoint(cfg.Endpoint),
			option.WithoutAuthentication(),
		)
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	default:
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := searchconsole.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search console service: %w", err)
	}

	logger := log.With().Str("component", "gsc-client").Logger()

	return &Client{
		svc:     svc,
		limiter: ratelimit.New(cfg.QPS, cfg.Burst, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// QueryPage fetches one page of search-analytics rows. It implements
// searchanalytics.PageQuerier for the paginated fetcher.
func (c *Client) QueryPage(ctx context.Context, property string, req searchanalytics.Request) ([]searchanalytics.Row, error) {
	if err := searchanalytics.ValidateProperty(property); err != nil {
		return nil, err
	}

	apiReq := buildQueryRequest(req)

	var resp *searchconsole.SearchAnalyticsQueryResponse
	err := c.call(ctx, "query", func() error {
		var callErr error
		resp, callErr = c.svc.Searchanalytics.Query(property, apiReq).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, err
	}

	rows := make([]searchanalytics.Row, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		rows = append(rows, searchanalytics.Row{
			Keys:        r.Keys,
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			CTR:         r.Ctr,
			Position:    r.Position,
		})
	}

	c.logger.Debug().
		Str("property", property).
		Int64("start_row", req.StartRow).
		Int("rows", len(rows)).
		Msg("Query page fetched")

	return rows, nil
}

// ListSites returns all properties the credentials can see, used to
// populate selection lists.
func (c *Client) ListSites(ctx context.Context) ([]searchanalytics.Site, error) {
	var resp *searchconsole.SitesListResponse
	err := c.call(ctx, "list_sites", func() error {
		var callErr error
		resp, callErr = c.svc.Sites.List().Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, err
	}

	sites := make([]searchanalytics.Site, 0, len(resp.SiteEntry))
	for _, entry := range resp.SiteEntry {
		sites = append(sites, searchanalytics.Site{
			SiteURL:         entry.SiteUrl,
			PermissionLevel: entry.PermissionLevel,
		})
	}
	return sites, nil
}

// InspectionResult is the distilled outcome of a URL inspection.
type InspectionResult struct {
	Verdict              string `json:"verdict,omitempty"`
	CoverageState        string `json:"coverageState,omitempty"`
	RobotsTxtState       string `json:"robotsTxtState,omitempty"`
	IndexingState        string `json:"indexingState,omitempty"`
	PageFetchState       string `json:"pageFetchState,omitempty"`
	LastCrawlTime        string `json:"lastCrawlTime,omitempty"`
	GoogleCanonical      string `json:"googleCanonical,omitempty"`
	UserCanonical        string `json:"userCanonical,omitempty"`
	InspectionResultLink string `json:"inspectionResultLink,omitempty"`
}

// InspectURL runs a single-shot index inspection of one URL belonging to
// the property. languageCode may be empty (API default).
func (c *Client) InspectURL(ctx context.Context, property, inspectionURL, languageCode string) (*InspectionResult, error) {
	if err := searchanalytics.ValidateProperty(property); err != nil {
		return nil, err
	}
	if inspectionURL == "" {
		return nil, fmt.Errorf("inspection url is required")
	}

	apiReq := &searchconsole.InspectUrlIndexRequest{
		SiteUrl:       property,
		InspectionUrl: inspectionURL,
		LanguageCode:  languageCode,
	}

	var resp *searchconsole.InspectUrlIndexResponse
	err := c.call(ctx, "inspect_url", func() error {
		var callErr error
		resp, callErr = c.svc.UrlInspection.Index.Inspect(apiReq).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, err
	}

	result := &InspectionResult{}
	if ir := resp.InspectionResult; ir != nil {
		result.InspectionResultLink = ir.InspectionResultLink
		if idx := ir.IndexStatusResult; idx != nil {
			result.Verdict = idx.Verdict
			result.CoverageState = idx.CoverageState
			result.RobotsTxtState = idx.RobotsTxtState
			result.IndexingState = idx.IndexingState
			result.PageFetchState = idx.PageFetchState
			result.LastCrawlTime = idx.LastCrawlTime
			result.GoogleCanonical = idx.GoogleCanonical
			result.UserCanonical = idx.UserCanonical
		}
	}
	return result, nil
}

// call runs one API operation through the rate limit gate and retry
// layer, recording metrics and wrapping failures with their class.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	defer func() {
		gscRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		gscRequestsTotal.WithLabelValues(op, "rate_limited").Inc()
		return err
	}

	if err := retryWithBackoff(ctx, op, fn); err != nil {
		class := classifyError(err)
		status := statusCode(err)

		gscErrorsTotal.WithLabelValues(string(class)).Inc()
		gscRequestsTotal.WithLabelValues(op, "error").Inc()

		c.logger.Warn().
			Str("operation", op).
			Int("status", status).
			Str("error_class", string(class)).
			Msg("Search Console request failed")

		return &APIError{Op: op, StatusCode: status, ErrorClass: class, Err: err}
	}

	gscRequestsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// buildQueryRequest maps the domain request onto the wire type.
func buildQueryRequest(req searchanalytics.Request) *searchconsole.SearchAnalyticsQueryRequest {
	apiReq := &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Dimensions: req.Dimensions,
		SearchType: req.SearchType,
		RowLimit:   req.RowLimit,
		StartRow:   req.StartRow,
	}
	for _, group := range req.FilterGroups {
		apiGroup := &searchconsole.ApiDimensionFilterGroup{
			GroupType: group.GroupType,
		}
		for _, f := range group.Filters {
			apiGroup.Filters = append(apiGroup.Filters, &searchconsole.ApiDimensionFilter{
				Dimension:  f.Dimension,
				Operator:   f.Operator,
				Expression: f.Expression,
			})
		}
		apiReq.DimensionFilterGroups = append(apiReq.DimensionFilterGroups, apiGroup)
	}
	return apiReq
}
