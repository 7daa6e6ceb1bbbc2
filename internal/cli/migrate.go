package cli

import (
	"checkout-service/migrations"
	"fmt"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the checkout and order tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := connectDB(cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			shards, err := connectShards(cfg.OrderShardDSNs)
			if err != nil {
				return err
			}
			defer func() {
				for _, s := range shards {
					s.Close()
				}
			}()

			if err := migrations.AutoMigrateCheckout(retries, db); err != nil {
				return fmt.Errorf("failed to migrate checkout tables: %w", err)
			}
			if err := migrations.AutoMigrateOrders(retries, shards...); err != nil {
				return fmt.Errorf("failed to migrate order tables: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated checkout db and %d order shard(s)\n", len(shards))
			return nil
		},
	}
	cmd.Flags().IntVar(&retries, "retries", 3, "retries per table")
	return cmd
}
