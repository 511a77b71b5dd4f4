// Package cli implements the gsc command line interface: one-shot report
// commands over the Search Console API plus a small serving mode.
package cli

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/gsc-client/pkg/client"
	"github.com/Sternrassler/gsc-client/pkg/logging"
)

// Env holds process-level configuration, loaded from GSC_* variables.
type Env struct {
	CredentialsFile string  `envconfig:"CREDENTIALS_FILE"`
	Endpoint        string  `envconfig:"ENDPOINT"`
	UserAgent       string  `envconfig:"USER_AGENT" default:"gsc-client/1.0.0"`
	LogLevel        string  `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty       bool    `envconfig:"LOG_PRETTY" default:"false"`
	QPS             float64 `envconfig:"QPS" default:"5"`
	Burst           int     `envconfig:"BURST" default:"5"`
}

var env Env

var rootCmd = &cobra.Command{
	Use:   "gsc",
	Short: "Search Console analytics client",
	Long: `gsc queries the Google Search Console API: list properties, fetch
search-analytics rows across pages, compare two periods, and inspect URLs.

Configuration comes from GSC_* environment variables (credentials file,
log level, request rate); per-report parameters are flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := envconfig.Process("gsc", &env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(env.LogLevel),
			Pretty: env.LogPretty,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newClient builds the API client from the process environment.
func newClient(ctx context.Context) (*client.Client, error) {
	cfg := client.DefaultConfig(env.UserAgent)
	cfg.CredentialsFile = env.CredentialsFile
	cfg.Endpoint = env.Endpoint
	cfg.QPS = env.QPS
	cfg.Burst = env.Burst

	c, err := client.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}
