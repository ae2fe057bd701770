package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rajasatyajit/StatusWatch/internal/cleanup"
)

func newCleanupCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete user reports older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := cleanup.New(st, cfg.Reports.Retention, cfg.Reports.CleanupInterval).RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d reports older than %s\n", deleted, cfg.Reports.Retention)
			return nil
		},
	}
}
