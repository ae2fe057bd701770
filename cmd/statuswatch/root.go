package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
)

type rootOptions struct {
	catalogPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "statuswatch",
		Short:         "statuswatch aggregates third-party service status feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "provider catalog file (overrides PROVIDERS_CATALOG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newCleanupCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the environment, applies flag overrides and initializes
// the logger.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.catalogPath != "" {
		cfg.Providers.CatalogPath = o.catalogPath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statuswatch %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
