package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/gsc-client/pkg/daterange"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

var queryFlags struct {
	site       string
	dimensions []string
	rangeMode  string
	from       string
	to         string
	searchType string
	filters    []string
	limit      int
	pageSize   int
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Fetch search-analytics rows for one period",
	Long: `Fetch search-analytics rows for a property over a date range,
paginating until the row limit or end of data. Results are JSON on stdout.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.site, "site", "", "property identifier (https://... or sc-domain:...)")
	queryCmd.Flags().StringSliceVar(&queryFlags.dimensions, "dimension", []string{"page"}, "dimensions to group by (page, query, date, country, device)")
	queryCmd.Flags().StringVar(&queryFlags.rangeMode, "range", string(daterange.ModeLast28d), "date range preset (last7d, last28d, last3mo, last12mo, custom)")
	queryCmd.Flags().StringVar(&queryFlags.from, "from", "", "custom range start (YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryFlags.to, "to", "", "custom range end (YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryFlags.searchType, "search-type", "", "search type (web, image, video, news, discover, googleNews)")
	queryCmd.Flags().StringArrayVar(&queryFlags.filters, "filter", nil, `dimension filter, e.g. "query contains shoes" (repeatable, AND-combined)`)
	queryCmd.Flags().IntVar(&queryFlags.limit, "limit", 1000, "total rows to fetch across all pages")
	queryCmd.Flags().IntVar(&queryFlags.pageSize, "page-size", 0, "rows per request (100-25000, 0 = maximum)")
	_ = queryCmd.MarkFlagRequired("site")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := parseMode(queryFlags.rangeMode)
	if err != nil {
		return err
	}
	r := daterange.Resolve(mode, queryFlags.from, queryFlags.to, time.Now())

	base, err := baseRequest(r, queryFlags.dimensions, queryFlags.searchType, queryFlags.filters)
	if err != nil {
		return err
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	rows, err := searchanalytics.FetchAll(ctx, c, queryFlags.site, base,
		fetchOptions(queryFlags.limit, queryFlags.pageSize, "fetching"))
	if err != nil {
		return fmt.Errorf("fetch rows: %w", err)
	}

	return writeJSON(cmd.OutOrStdout(), struct {
		Range daterange.Range       `json:"range"`
		Rows  []searchanalytics.Row `json:"rows"`
	}{r, rows})
}
