package entity

import (
	"github.com/shopspring/decimal"
	"strings"
	"time"
)

type Order struct {
	ID              int64           `json:"id"`
	IncrementID     string          `json:"increment_id"`
	CartID          string          `json:"cart_id"`
	CustomerID      int64           `json:"customer_id,omitempty"`
	CustomerEmail   string          `json:"customer_email"`
	Status          string          `json:"status"`
	Qty             decimal.Decimal `json:"qty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	ShippingMethod  string          `json:"shipping_method"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress *Address        `json:"shipping_address"`
	BillingAddress  *Address        `json:"billing_address"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

type OrderItem struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	RowTotal  decimal.Decimal `json:"row_total"`
}

const OrderStatusPending = "pending"

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	ItemsQty       decimal.Decimal `json:"items_qty"`
}

type PaymentMethodInfo struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

type PaymentDetails struct {
	PaymentMethods []PaymentMethodInfo `json:"payment_methods"`
	Totals         Totals              `json:"totals"`
}

// Warning is a non-fatal problem met while building a sub-cart.
type Warning struct {
	Kind      ErrorKind `json:"kind"`
	ProductID int64     `json:"product_id,omitempty"`
	Message   string    `json:"message"`
}

// OrderOutcome is the result of one placement attempt.
type OrderOutcome struct {
	Group    int       `json:"group"`
	CartID   string    `json:"cart_id,omitempty"`
	OrderID  string    `json:"order_id,omitempty"`
	Kind     ErrorKind `json:"error_kind,omitempty"`
	Message  string    `json:"error,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
	Err      error     `json:"-"`
}

func (o OrderOutcome) Succeeded() bool { return o.OrderID != "" && o.Err == nil }

// Failed records err as the outcome's terminal failure.
func (o OrderOutcome) Failed(err error) OrderOutcome {
	o.Err = err
	o.Kind = KindOf(err)
	o.Message = MessageOf(err)
	return o
}

type OutcomeStatus string

const (
	StatusComplete OutcomeStatus = "complete"
	StatusPartial  OutcomeStatus = "partial"
	StatusFailed   OutcomeStatus = "failed"
)

// Outcomes is the ordered per-group result of one place-order call.
type Outcomes []OrderOutcome

func (oc Outcomes) Status() OutcomeStatus {
	ok := 0
	for _, o := range oc {
		if o.Succeeded() {
			ok++
		}
	}
	switch {
	case len(oc) > 0 && ok == len(oc):
		return StatusComplete
	case ok > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

func (oc Outcomes) OrderIDs() []string {
	ids := make([]string, 0, len(oc))
	for _, o := range oc {
		if o.Succeeded() {
			ids = append(ids, o.OrderID)
		}
	}
	return ids
}

// Joined is the comma-joined list of successful order ids.
func (oc Outcomes) Joined() string {
	return strings.Join(oc.OrderIDs(), ",")
}

// FirstError returns the first recorded failure, if any.
func (oc Outcomes) FirstError() error {
	for _, o := range oc {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}

// SplitSummary describes one split place-order call.
type SplitSummary struct {
	OriginCartID string        `json:"origin_cart_id"`
	CustomerID   int64         `json:"customer_id,omitempty"`
	Status       OutcomeStatus `json:"status"`
	OrderIDs     []string      `json:"order_ids"`
	Outcomes     Outcomes      `json:"outcomes"`
}

func NewSplitSummary(cart *Cart, outcomes Outcomes) SplitSummary {
	return SplitSummary{
		OriginCartID: cart.ID,
		CustomerID:   cart.CustomerID,
		Status:       outcomes.Status(),
		OrderIDs:     outcomes.OrderIDs(),
		Outcomes:     outcomes,
	}
}
