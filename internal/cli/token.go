package cli

import (
	"checkout-service/internal/api"
	"fmt"
	"github.com/spf13/cobra"
	"time"
)

func newTokenCmd(load configLoader) *cobra.Command {
	var (
		customerID int64
		email      string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a customer token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID <= 0 {
				return fmt.Errorf("--customer-id must be positive")
			}
			cfg, err := load()
			if err != nil {
				return err
			}

			token, err := api.IssueToken(cfg.JWTSecret, customerID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&customerID, "customer-id", 0, "customer id carried by the token")
	cmd.Flags().StringVar(&email, "email", "", "customer email carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
