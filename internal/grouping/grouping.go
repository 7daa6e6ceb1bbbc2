package grouping

import (
	"checkout-service/internal/entity"
	"github.com/shopspring/decimal"
)

// Item is one grouper input: the request used to re-add a cart line and the
// quantity to distribute.
type Item struct {
	Request entity.ItemRequest
	Qty     decimal.Decimal
}

// Group is one sub-order worth of item requests. Each request carries the
// quantity assigned to this group.
type Group struct {
	Items []entity.ItemRequest `json:"items"`
}

// Qty is the summed quantity of the group.
func (g Group) Qty() decimal.Decimal {
	total := decimal.Zero
	for _, it := range g.Items {
		total = total.Add(it.Qty)
	}
	return total
}

// Split packs items into groups of at most maxPerGroup units, filling each
// group left to right in input order. An item larger than the space left in
// the current group is peeled across as many groups as it needs.
func Split(items []Item, maxPerGroup decimal.Decimal) ([]Group, error) {
	if !maxPerGroup.IsPositive() {
		return nil, entity.Validationf("max quantity per order must be positive, got %s", maxPerGroup)
	}
	for _, it := range items {
		if it.Qty.IsNegative() {
			return nil, entity.Validationf("quantity for product %d must not be negative, got %s", it.Request.ProductID, it.Qty)
		}
	}

	var groups []Group
	current := Group{}
	remaining := maxPerGroup

	for _, it := range items {
		left := it.Qty
		for left.IsPositive() {
			take := decimal.Min(left, remaining)
			current.Items = append(current.Items, it.Request.WithQty(take))
			left = left.Sub(take)
			remaining = remaining.Sub(take)

			if remaining.IsZero() {
				groups = append(groups, current)
				current = Group{}
				remaining = maxPerGroup
			}
		}
	}

	if len(current.Items) > 0 {
		groups = append(groups, current)
	}

	return groups, nil
}

// FromCart returns the cart's visible lines as grouper input, with the
// transient request fields stripped.
func FromCart(cart *entity.Cart) []Item {
	visible := cart.VisibleItems()
	items := make([]Item, 0, len(visible))
	for _, li := range visible {
		req := li.Request.Reusable()
		if req.ProductID == 0 {
			req.ProductID = li.ProductID
		}
		items = append(items, Item{Request: req, Qty: li.Qty})
	}
	return items
}
