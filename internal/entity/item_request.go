package entity

import (
	"github.com/shopspring/decimal"
	"maps"
)

// ItemRequest is everything needed to add a product to a cart again.
type ItemRequest struct {
	ProductID       int64             `json:"product"`
	Qty             decimal.Decimal   `json:"qty"`
	Options         map[string]string `json:"options,omitempty"`
	SuperAttributes map[string]string `json:"super_attribute,omitempty"`
	Transient       TransientFields   `json:"transient,omitzero"`
}

// TransientFields are request-scoped markers recorded when the item was
// first added. They must not travel to another cart.
type TransientFields struct {
	OriginalQty *decimal.Decimal `json:"original_qty,omitempty"`
	URLEncoding string           `json:"uenc,omitempty"`
}

func (t TransientFields) IsZero() bool {
	return t.OriginalQty == nil && t.URLEncoding == ""
}

// Clone returns a deep copy so groups never share option maps.
func (r ItemRequest) Clone() ItemRequest {
	r.Options = maps.Clone(r.Options)
	r.SuperAttributes = maps.Clone(r.SuperAttributes)
	if r.Transient.OriginalQty != nil {
		q := *r.Transient.OriginalQty
		r.Transient.OriginalQty = &q
	}
	return r
}

// Reusable returns a copy with the transient fields stripped.
func (r ItemRequest) Reusable() ItemRequest {
	c := r.Clone()
	c.Transient = TransientFields{}
	return c
}

// WithQty returns a copy carrying qty.
func (r ItemRequest) WithQty(qty decimal.Decimal) ItemRequest {
	c := r.Clone()
	c.Qty = qty
	return c
}
