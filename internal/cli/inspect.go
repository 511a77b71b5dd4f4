package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectFlags struct {
	site     string
	url      string
	language string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the index status of one URL",
	Long:  `Run a single-shot URL inspection against a property. JSON on stdout.`,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFlags.site, "site", "", "property identifier (https://... or sc-domain:...)")
	inspectCmd.Flags().StringVar(&inspectFlags.url, "url", "", "fully qualified URL to inspect")
	inspectCmd.Flags().StringVar(&inspectFlags.language, "language", "", "BCP-47 language code for result messages")
	_ = inspectCmd.MarkFlagRequired("site")
	_ = inspectCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	result, err := c.InspectURL(ctx, inspectFlags.site, inspectFlags.url, inspectFlags.language)
	if err != nil {
		return fmt.Errorf("inspect url: %w", err)
	}

	return writeJSON(cmd.OutOrStdout(), result)
}
