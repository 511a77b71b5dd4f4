package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/gsc-client/pkg/daterange"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

var compareFlags struct {
	site        string
	dimensions  []string
	rangeMode   string
	from        string
	to          string
	policy      string
	compareMode string
	compareFrom string
	compareTo   string
	searchType  string
	filters     []string
	limit       int
	pageSize    int
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare search-analytics metrics across two periods",
	Long: `Fetch rows for a primary range and a derived comparison range, join
them by dimension values, and emit per-key metric diffs as JSON.

The comparison range is the immediately preceding period of equal length,
the same period one year earlier, or an independent custom range.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareFlags.site, "site", "", "property identifier (https://... or sc-domain:...)")
	compareCmd.Flags().StringSliceVar(&compareFlags.dimensions, "dimension", []string{"page"}, "dimensions to group by (fixed across both periods)")
	compareCmd.Flags().StringVar(&compareFlags.rangeMode, "range", string(daterange.ModeLast28d), "primary range preset")
	compareCmd.Flags().StringVar(&compareFlags.from, "from", "", "primary custom range start (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&compareFlags.to, "to", "", "primary custom range end (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&compareFlags.policy, "compare", string(daterange.PolicyPreviousPeriod), "comparison policy (previous_period, previous_year, custom)")
	compareCmd.Flags().StringVar(&compareFlags.compareMode, "compare-range", string(daterange.ModeCustom), "comparison range preset when --compare=custom")
	compareCmd.Flags().StringVar(&compareFlags.compareFrom, "compare-from", "", "comparison custom range start (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&compareFlags.compareTo, "compare-to", "", "comparison custom range end (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&compareFlags.searchType, "search-type", "", "search type (web, image, video, news, discover, googleNews)")
	compareCmd.Flags().StringArrayVar(&compareFlags.filters, "filter", nil, `dimension filter, e.g. "query contains shoes" (repeatable, AND-combined)`)
	compareCmd.Flags().IntVar(&compareFlags.limit, "limit", 1000, "total rows to fetch per period")
	compareCmd.Flags().IntVar(&compareFlags.pageSize, "page-size", 0, "rows per request (100-25000, 0 = maximum)")
	_ = compareCmd.MarkFlagRequired("site")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	mode, err := parseMode(compareFlags.rangeMode)
	if err != nil {
		return err
	}
	policy, err := parsePolicy(compareFlags.policy)
	if err != nil {
		return err
	}
	compareMode, err := parseMode(compareFlags.compareMode)
	if err != nil {
		return err
	}

	primary := daterange.Resolve(mode, compareFlags.from, compareFlags.to, now)
	rangeA, rangeB := daterange.BuildComparison(policy, primary, daterange.Custom{
		Mode:  compareMode,
		Start: compareFlags.compareFrom,
		End:   compareFlags.compareTo,
	}, now)

	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	// Dimension order is fixed here and shared by both fetches; it
	// determines how rows are matched across the two periods.
	fetch := func(r daterange.Range, label string) ([]searchanalytics.Row, error) {
		base, err := baseRequest(r, compareFlags.dimensions, compareFlags.searchType, compareFlags.filters)
		if err != nil {
			return nil, err
		}
		rows, err := searchanalytics.FetchAll(ctx, c, compareFlags.site, base,
			fetchOptions(compareFlags.limit, compareFlags.pageSize, label))
		if err != nil {
			return nil, fmt.Errorf("fetch %s (%s): %w", label, r, err)
		}
		return rows, nil
	}

	rowsA, err := fetch(rangeA, "period A")
	if err != nil {
		return err
	}
	rowsB, err := fetch(rangeB, "period B")
	if err != nil {
		return err
	}

	records := searchanalytics.Compare(rowsA, rowsB, rangeA, rangeB, policy)

	return writeJSON(cmd.OutOrStdout(), struct {
		RangeA  daterange.Range                     `json:"rangeA"`
		RangeB  daterange.Range                     `json:"rangeB"`
		Policy  daterange.Policy                    `json:"policy"`
		Records []searchanalytics.ComparisonRecord `json:"records"`
	}{rangeA, rangeB, policy, records})
}
