package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List Search Console properties",
	Long:  `List all properties the configured credentials can access.`,
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	sites, err := c.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No properties visible to these credentials.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SITE URL\tPERMISSION")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\n", s.SiteURL, s.PermissionLevel)
	}
	return w.Flush()
}
