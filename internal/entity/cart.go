package entity

import (
	"github.com/shopspring/decimal"
	"time"
)

// CustomerContext identifies who a cart belongs to. CustomerID 0 is a
// guest.
type CustomerContext struct {
	CustomerID int64  `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (c CustomerContext) IsGuest() bool { return c.CustomerID == 0 }

// Customer carries the address book defaults of a registered customer.
type Customer struct {
	ID                int64  `json:"id"`
	Email             string `json:"email"`
	DefaultBillingID  int64  `json:"default_billing,omitempty"`
	DefaultShippingID int64  `json:"default_shipping,omitempty"`
}

type Product struct {
	ID      int64           `json:"id"`
	SKU     string          `json:"sku"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Enabled bool            `json:"enabled"`
}

type LineItem struct {
	ID           int64           `json:"id,omitempty"`
	ParentItemID int64           `json:"parent_item_id,omitempty"`
	ProductID    int64           `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Qty          decimal.Decimal `json:"qty"`
	Disabled     bool            `json:"disabled,omitempty"`
	Request      ItemRequest     `json:"buy_request"`
}

// Visible reports whether the item is a top-level cart line.
func (i LineItem) Visible() bool { return i.ParentItemID == 0 }

func (i LineItem) RowTotal() decimal.Decimal { return i.Price.Mul(i.Qty) }

type PaymentMethod struct {
	Method         string            `json:"method"`
	PONumber       string            `json:"po_number,omitempty"`
	AdditionalData map[string]string `json:"additional_data,omitempty"`
}

// Cart is a mutable collection of line items plus shipping and billing
// context prior to order placement.
type Cart struct {
	ID              string         `json:"id"`
	MaskedID        string         `json:"masked_id,omitempty"`
	CustomerID      int64          `json:"customer_id,omitempty"`
	CustomerEmail   string         `json:"customer_email,omitempty"`
	Customer        *Customer      `json:"customer,omitempty"`
	Active          bool           `json:"is_active"`
	Items           []LineItem     `json:"items"`
	ShippingAddress *Address       `json:"shipping_address,omitempty"`
	BillingAddress  *Address       `json:"billing_address,omitempty"`
	Payment         *PaymentMethod `json:"payment,omitempty"`
	Changed         bool           `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (c *Cart) CustomerContext() CustomerContext {
	return CustomerContext{CustomerID: c.CustomerID, Email: c.CustomerEmail}
}

func (c *Cart) VisibleItems() []LineItem {
	items := make([]LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Visible() {
			items = append(items, it)
		}
	}
	return items
}

// ItemsQty is the summed quantity of visible items.
func (c *Cart) ItemsQty() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.VisibleItems() {
		total = total.Add(it.Qty)
	}
	return total
}

// PurchasableQty is ItemsQty without disabled items.
func (c *Cart) PurchasableQty() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.VisibleItems() {
		if !it.Disabled {
			total = total.Add(it.Qty)
		}
	}
	return total
}

// AddProduct appends a line for product built from req.
func (c *Cart) AddProduct(p Product, req ItemRequest) error {
	if p.ID == 0 {
		return NotFoundf("The product that was requested doesn't exist. Verify the product and try again.")
	}
	if !p.Enabled {
		return Validationf("Product that you are trying to add is not available.")
	}
	if !req.Qty.IsPositive() {
		return Validationf("The product quantity for %s must be greater than zero.", p.SKU)
	}
	req.ProductID = p.ID
	c.Items = append(c.Items, LineItem{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price,
		Qty:       req.Qty,
		Request:   req,
	})
	c.Changed = true
	return nil
}

// SetBillingAddress replaces the billing address. A missing customer id is
// taken from the cart so customer-specific price rules resolve.
func (c *Cart) SetBillingAddress(addr *Address) {
	addr = addr.Clone()
	addr.ID = 0
	if addr.CustomerID == 0 && c.CustomerID != 0 {
		addr.CustomerID = c.CustomerID
	}
	c.BillingAddress = addr
	c.Changed = true
}

// Clone returns a deep copy of c.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	for i, it := range c.Items {
		it.Request = it.Request.Clone()
		cp.Items[i] = it
	}
	cp.ShippingAddress = c.ShippingAddress.Clone()
	cp.BillingAddress = c.BillingAddress.Clone()
	if c.Payment != nil {
		p := *c.Payment
		cp.Payment = &p
	}
	if c.Customer != nil {
		cu := *c.Customer
		cp.Customer = &cu
	}
	return &cp
}
