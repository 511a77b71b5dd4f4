package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/gsc-client/pkg/client"
	"github.com/Sternrassler/gsc-client/pkg/daterange"
	"github.com/Sternrassler/gsc-client/pkg/logging"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the connector operations over HTTP",
	Long: `Serve the Search Console operations as a small JSON API, plus
health and Prometheus metrics endpoints.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

// rangePayload selects a date range in a request body.
type rangePayload struct {
	Mode  string `json:"mode"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p rangePayload) resolve(now time.Time) (daterange.Range, error) {
	mode := p.Mode
	if mode == "" {
		mode = string(daterange.ModeLast28d)
	}
	m, err := parseMode(mode)
	if err != nil {
		return daterange.Range{}, err
	}
	return daterange.Resolve(m, p.Start, p.End, now), nil
}

// queryPayload is the body of /v1/query and the base of /v1/compare.
type queryPayload struct {
	Site       string       `json:"site"`
	Range      rangePayload `json:"range"`
	Dimensions []string     `json:"dimensions"`
	SearchType string       `json:"searchType"`
	Filters    []string     `json:"filters"`
	Limit      int          `json:"limit"`
	PageSize   int          `json:"pageSize"`
}

type comparePayload struct {
	queryPayload
	Compare      string       `json:"compare"`
	CompareRange rangePayload `json:"compareRange"`
}

type inspectPayload struct {
	Site         string `json:"site"`
	URL          string `json:"url"`
	LanguageCode string `json:"languageCode"`
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.NewLogger("gsc-serve")

	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/sites", func(w http.ResponseWriter, req *http.Request) {
		sites, err := c.ListSites(req.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"sites": sites})
	})

	r.Post("/v1/query", func(w http.ResponseWriter, req *http.Request) {
		var body queryPayload
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		rng, base, opts, err := prepareQuery(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := searchanalytics.FetchAll(req.Context(), c, body.Site, base, opts)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"range": rng, "rows": rows})
	})

	r.Post("/v1/compare", func(w http.ResponseWriter, req *http.Request) {
		var body comparePayload
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		policyName := body.Compare
		if policyName == "" {
			policyName = string(daterange.PolicyPreviousPeriod)
		}
		policy, err := parsePolicy(policyName)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		now := time.Now()
		primary, err := body.Range.resolve(now)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		compareMode := body.CompareRange.Mode
		if compareMode == "" {
			compareMode = string(daterange.ModeCustom)
		}
		rangeA, rangeB := daterange.BuildComparison(policy, primary, daterange.Custom{
			Mode:  daterange.Mode(compareMode),
			Start: body.CompareRange.Start,
			End:   body.CompareRange.End,
		}, now)

		fetch := func(rng daterange.Range) ([]searchanalytics.Row, error) {
			base, err := baseRequest(rng, body.Dimensions, body.SearchType, body.Filters)
			if err != nil {
				return nil, err
			}
			return searchanalytics.FetchAll(req.Context(), c, body.Site, base, searchanalytics.FetchOptions{
				TargetLimit: limitOrDefault(body.Limit),
				PageSize:    body.PageSize,
			})
		}

		rowsA, err := fetch(rangeA)
		if err != nil {
			respondError(w, err)
			return
		}
		rowsB, err := fetch(rangeB)
		if err != nil {
			respondError(w, err)
			return
		}

		records := searchanalytics.Compare(rowsA, rowsB, rangeA, rangeB, policy)
		respondJSON(w, map[string]any{
			"rangeA":  rangeA,
			"rangeB":  rangeB,
			"policy":  policy,
			"records": records,
		})
	})

	r.Post("/v1/inspect", func(w http.ResponseWriter, req *http.Request) {
		var body inspectPayload
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result, err := c.InspectURL(req.Context(), body.Site, body.URL, body.LanguageCode)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, result)
	})

	logger.Info().Str("addr", serveFlags.addr).Msg("Starting server")
	return http.ListenAndServe(serveFlags.addr, r)
}

// prepareQuery turns a query payload into fetch inputs.
func prepareQuery(body queryPayload) (daterange.Range, searchanalytics.Request, searchanalytics.FetchOptions, error) {
	rng, err := body.Range.resolve(time.Now())
	if err != nil {
		return daterange.Range{}, searchanalytics.Request{}, searchanalytics.FetchOptions{}, err
	}
	base, err := baseRequest(rng, body.Dimensions, body.SearchType, body.Filters)
	if err != nil {
		return daterange.Range{}, searchanalytics.Request{}, searchanalytics.FetchOptions{}, err
	}
	opts := searchanalytics.FetchOptions{
		TargetLimit: limitOrDefault(body.Limit),
		PageSize:    body.PageSize,
	}
	return rng, base, opts, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return searchanalytics.DefaultFetchOptions().TargetLimit
	}
	return limit
}

// respondError maps client-attributable failures to 400 and everything
// else (transport, remote) to 502.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	status := http.StatusBadGateway
	if errors.As(err, &apiErr) {
		if apiErr.ErrorClass == client.ErrorClassClient {
			status = http.StatusBadRequest
		}
	} else {
		// Validation errors raised before any network call.
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
