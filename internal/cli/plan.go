package cli

import (
	"checkout-service/internal/entity"
	"checkout-service/internal/grouping"
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"os"
)

type planOutput struct {
	CartID   string           `json:"cart_id"`
	ItemsQty decimal.Decimal  `json:"items_qty"`
	Split    bool             `json:"split"`
	Groups   []grouping.Group `json:"groups"`
}

func newPlanCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <cart.json>",
		Short: "Print how a cart would be split into orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var cart entity.Cart
			if err := json.Unmarshal(data, &cart); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			out := planOutput{
				CartID:   cart.ID,
				ItemsQty: cart.ItemsQty(),
				Split:    cart.ItemsQty().GreaterThan(decimal.NewFromInt(cfg.Split.Threshold)),
			}
			if out.Split {
				out.Groups, err = grouping.Split(grouping.FromCart(&cart), decimal.NewFromInt(cfg.Split.MaxQtyPerOrder))
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	return cmd
}
