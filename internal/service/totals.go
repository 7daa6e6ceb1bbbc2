package service

import (
	"checkout-service/internal/entity"
	"context"
	"github.com/shopspring/decimal"
)

type TotalsService struct {
	carts CartStore
}

func NewTotalsService(carts CartStore) *TotalsService {
	return &TotalsService{carts: carts}
}

func (s *TotalsService) Get(ctx context.Context, cartID string) (entity.Totals, error) {
	cart, err := s.carts.GetActive(ctx, cartID)
	if err != nil {
		return entity.Totals{}, err
	}
	return CollectTotals(cart), nil
}

// CollectTotals sums the purchasable lines and the selected shipping rate.
func CollectTotals(cart *entity.Cart) entity.Totals {
	subtotal := decimal.Zero
	for _, item := range cart.VisibleItems() {
		if !item.Disabled {
			subtotal = subtotal.Add(item.RowTotal())
		}
	}

	shipping := decimal.Zero
	if rate := cart.ShippingAddress.SelectedRate(); rate != nil {
		shipping = rate.Price
	}

	return entity.Totals{
		Subtotal:       subtotal,
		ShippingAmount: shipping,
		GrandTotal:     subtotal.Add(shipping),
		ItemsQty:       cart.PurchasableQty(),
	}
}
