package service

import (
	"checkout-service/internal/entity"
	"context"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"os"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	ServerErrorMessage      = "A server error stopped your order from being placed. Please try to place your order again."
	GuestServerErrorMessage = "An error occurred on the server. Please try to place the order again."
	DisabledProductsMessage = "Some of the products are disabled."
)

// SaveMode says whether a payment save was requested by a caller or issued
// by the checkout itself while placing an order.
type SaveMode int

const (
	// SaveExternal is charged against the saving limiter.
	SaveExternal SaveMode = iota
	// SaveInternal skips the saving limiter; the placement attempt has
	// already been charged to the processing limiter.
	SaveInternal
)

// PaymentRequest is the input of every payment operation.
type PaymentRequest struct {
	CartID string
	// CustomerID is the authenticated customer. When set, carts owned by
	// anyone else are reported as missing.
	CustomerID     int64
	Email          string
	PaymentMethod  entity.PaymentMethod
	BillingAddress *entity.Address
	IdempotencyKey string
}

// Checkout places a single cart.
type Checkout struct {
	carts       CartStore
	payments    PaymentMethods
	totals      TotalsCollector
	orders      OrderPlacer
	addressBook AddressBook
	gate        RateGate

	serverErrorMessage string
}

func NewCheckout(carts CartStore, payments PaymentMethods, totals TotalsCollector, orders OrderPlacer, addressBook AddressBook, gate RateGate) *Checkout {
	return &Checkout{
		carts:              carts,
		payments:           payments,
		totals:             totals,
		orders:             orders,
		addressBook:        addressBook,
		gate:               gate,
		serverErrorMessage: ServerErrorMessage,
	}
}

// WithServerErrorMessage returns a copy of c that reports unexpected
// placement failures with msg.
func (c *Checkout) WithServerErrorMessage(msg string) *Checkout {
	cp := *c
	cp.serverErrorMessage = msg
	return &cp
}

// PlaceOne charges one checkout attempt, saves the payment information and
// places the order.
func (c *Checkout) PlaceOne(ctx context.Context, req PaymentRequest) (string, error) {
	if err := c.gate.LimitProcessing(ctx); err != nil {
		return "", err
	}
	return c.placeAdmitted(ctx, req)
}

// placeAdmitted is PlaceOne for an attempt already charged to the
// processing limiter.
func (c *Checkout) placeAdmitted(ctx context.Context, req PaymentRequest) (string, error) {
	if err := c.savePayment(ctx, req, SaveInternal); err != nil {
		return "", err
	}

	orderID, err := c.orders.PlaceOrder(ctx, req.CartID)
	if err != nil {
		return "", c.placementFailure(req.CartID, err)
	}

	return orderID, nil
}

func (c *Checkout) placementFailure(cartID string, err error) error {
	switch entity.KindOf(err) {
	case entity.KindValidation, entity.KindNotFound, entity.KindPlacement:
		msg := entity.MessageOf(err)
		logger.Error().Str("severity", "critical").Str("cart_id", cartID).
			Msgf("Placing an order with cart_id %s is failed: %s", cartID, msg)
		return entity.NewError(entity.KindPlacement, msg, err)
	default:
		logger.Error().Str("severity", "critical").Str("cart_id", cartID).Err(err).
			Msg("Unexpected error while placing an order")
		return entity.NewError(entity.KindPlacement, c.serverErrorMessage, err)
	}
}

// SavePaymentInformation stores the billing address and payment method
// without placing an order.
func (c *Checkout) SavePaymentInformation(ctx context.Context, req PaymentRequest) error {
	return c.savePayment(ctx, req, SaveExternal)
}

func (c *Checkout) savePayment(ctx context.Context, req PaymentRequest, mode SaveMode) error {
	if mode == SaveExternal {
		if err := c.gate.LimitSaving(ctx); err != nil {
			return err
		}
	}

	cart, err := ownedCart(ctx, c.carts, req.CartID, req.CustomerID)
	if err != nil {
		return err
	}

	if req.BillingAddress != nil {
		billing := req.BillingAddress.Clone()
		if req.Email != "" {
			billing.Email = req.Email
		}
		cart.SetBillingAddress(billing)
	} else if req.Email != "" {
		if cart.BillingAddress == nil {
			cart.BillingAddress = &entity.Address{}
		}
		cart.BillingAddress.Email = req.Email
		cart.Changed = true
	}
	if req.Email != "" && cart.CustomerID == 0 {
		cart.CustomerEmail = req.Email
	}

	if !cart.PurchasableQty().IsPositive() {
		return entity.Validationf(DisabledProductsMessage)
	}

	if cart.ShippingAddress != nil {
		if err := c.processShippingAddress(ctx, cart); err != nil {
			return err
		}
	}

	if err := c.carts.Save(ctx, cart); err != nil {
		logger.Error().Err(err).Msgf("Error saving cart %s", cart.ID)
		return entity.Persistence("The payment information could not be saved.", err)
	}

	return c.payments.SetPaymentMethod(ctx, cart.ID, req.PaymentMethod)
}

// processShippingAddress limits the carrier to the chosen rate, marks the
// shipping address same-as-billing, and saves it to the address book when
// asked to.
func (c *Checkout) processShippingAddress(ctx context.Context, cart *entity.Cart) error {
	shipping := cart.ShippingAddress
	billing := cart.BillingAddress

	if rate := shipping.SelectedRate(); rate != nil {
		shipping.LimitCarrier = rate.Carrier
	}
	if entity.AttributesEqual(shipping, billing) {
		shipping.SameAsBilling = true
	}

	if !shipping.SameAsBilling || !shipping.SaveInAddressBook || cart.CustomerID == 0 {
		return nil
	}

	record := shipping.ExportCustomerAddress()
	record.CustomerID = cart.CustomerID

	var hasDefaultBilling, hasDefaultShipping bool
	if cart.Customer != nil {
		hasDefaultBilling = cart.Customer.DefaultBillingID != 0
		hasDefaultShipping = cart.Customer.DefaultShippingID != 0
	}
	if !hasDefaultShipping {
		record.IsDefaultShipping = true
		if !hasDefaultBilling && (billing == nil || !billing.SaveInAddressBook) {
			record.IsDefaultBilling = true
		}
	}

	if err := c.addressBook.Save(ctx, record); err != nil {
		logger.Error().Err(err).Msgf("Error saving address for customer %d", cart.CustomerID)
		return entity.Persistence("The address could not be saved.", err)
	}

	if cart.Customer != nil {
		if record.IsDefaultShipping {
			cart.Customer.DefaultShippingID = record.ID
		}
		if record.IsDefaultBilling {
			cart.Customer.DefaultBillingID = record.ID
		}
	}
	shipping.CustomerAddressID = record.ID
	if billing != nil {
		billing.CustomerAddressID = record.ID
	}
	cart.Changed = true
	return nil
}

// GetPaymentInformation returns the available payment methods and the cart
// totals.
func (c *Checkout) GetPaymentInformation(ctx context.Context, cartID string, customerID int64) (entity.PaymentDetails, error) {
	if _, err := ownedCart(ctx, c.carts, cartID, customerID); err != nil {
		return entity.PaymentDetails{}, err
	}

	var details entity.PaymentDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		methods, err := c.payments.List(gctx, cartID)
		details.PaymentMethods = methods
		return err
	})
	g.Go(func() error {
		totals, err := c.totals.Get(gctx, cartID)
		details.Totals = totals
		return err
	})
	if err := g.Wait(); err != nil {
		return entity.PaymentDetails{}, err
	}

	return details, nil
}

// ownedCart loads an active cart. A cart owned by a customer other than
// customerID is reported as missing.
func ownedCart(ctx context.Context, carts CartStore, cartID string, customerID int64) (*entity.Cart, error) {
	cart, err := carts.GetActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if customerID != 0 && cart.CustomerID != customerID {
		return nil, entity.NotFoundf("No such entity with cartId = %s", cartID)
	}
	return cart, nil
}
