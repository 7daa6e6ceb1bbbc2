package service

import (
	"checkout-service/internal/entity"
	"checkout-service/internal/grouping"
	"context"
	"github.com/shopspring/decimal"
)

// SplitConfig controls when and how an oversized cart is split.
type SplitConfig struct {
	// Carts whose visible quantity is above Threshold are split.
	Threshold decimal.Decimal
	// MaxQtyPerOrder caps the quantity of every resulting order.
	MaxQtyPerOrder decimal.Decimal
	CarrierCode    string
	MethodCode     string
}

func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		Threshold:      decimal.NewFromInt(5),
		MaxQtyPerOrder: decimal.NewFromInt(4),
		CarrierCode:    "flatrate",
		MethodCode:     "flatrate",
	}
}

// Coordinator places a cart as one order, or as several when the cart is
// too large for a single shipment.
type Coordinator struct {
	carts       CartStore
	checkout    *Checkout
	builder     *SubCartBuilder
	gate        RateGate
	events      EventPublisher
	idempotency IdempotencyGuard
	cfg         SplitConfig
}

func NewCoordinator(carts CartStore, checkout *Checkout, builder *SubCartBuilder, gate RateGate, events EventPublisher, idempotency IdempotencyGuard, cfg SplitConfig) *Coordinator {
	return &Coordinator{
		carts:       carts,
		checkout:    checkout,
		builder:     builder,
		gate:        gate,
		events:      events,
		idempotency: idempotency,
		cfg:         cfg,
	}
}

// SavePaymentAndPlaceOrder places the cart and returns one outcome per
// resulting order, in placement order.
//
// A cart at or below the threshold is placed as-is and its failure is
// returned as the error. A split cart never returns an error once placement
// has started: every group gets exactly one attempt and its outcome, and
// callers read Outcomes.Status.
func (c *Coordinator) SavePaymentAndPlaceOrder(ctx context.Context, req PaymentRequest) (entity.Outcomes, error) {
	origin, err := ownedCart(ctx, c.carts, req.CartID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := c.claim(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var outcomes entity.Outcomes
	if origin.ItemsQty().GreaterThan(c.cfg.Threshold) {
		outcomes, err = c.placeSplit(ctx, origin, req)
	} else {
		outcomes, err = c.placeSingle(ctx, origin, req)
	}

	if outcomes.Status() == entity.StatusFailed {
		c.release(ctx, req.IdempotencyKey)
	}
	return outcomes, err
}

func (c *Coordinator) placeSingle(ctx context.Context, origin *entity.Cart, req PaymentRequest) (entity.Outcomes, error) {
	outcome := entity.OrderOutcome{CartID: origin.ID}

	orderID, err := c.checkout.PlaceOne(ctx, req)
	if err != nil {
		return entity.Outcomes{outcome.Failed(err)}, err
	}

	outcome.OrderID = orderID
	return entity.Outcomes{outcome}, nil
}

func (c *Coordinator) placeSplit(ctx context.Context, origin *entity.Cart, req PaymentRequest) (entity.Outcomes, error) {
	groups, err := grouping.Split(grouping.FromCart(origin), c.cfg.MaxQtyPerOrder)
	if err != nil {
		return nil, err
	}

	customer := origin.CustomerContext()
	if customer.IsGuest() && req.Email != "" {
		customer.Email = req.Email
	}
	snapshot := entity.NewShippingSnapshot(origin.ShippingAddress, c.cfg.CarrierCode, c.cfg.MethodCode)

	logger.Info().Msgf("Splitting cart %s with qty %s into %d orders", origin.ID, origin.ItemsQty(), len(groups))

	outcomes := make(entity.Outcomes, 0, len(groups))
	for i, group := range groups {
		outcome := c.placeGroup(ctx, i, group, origin.ID, customer, snapshot, req)
		if !outcome.Succeeded() {
			logger.Error().Err(outcome.Err).Msgf("Split order %d of cart %s failed", i+1, origin.ID)
		}
		outcomes = append(outcomes, outcome)
	}

	if c.events != nil {
		err := c.events.PublishCartSplit(ctx, entity.NewSplitSummary(origin, outcomes))
		if err != nil {
			logger.Error().Err(err).Msgf("Error publishing split summary for cart %s", origin.ID)
		}
	}

	return outcomes, nil
}

// placeGroup makes the single placement attempt for one group. The attempt
// is charged to the processing limiter before the sub-cart exists.
func (c *Coordinator) placeGroup(ctx context.Context, index int, group grouping.Group, originID string, customer entity.CustomerContext, snapshot entity.ShippingSnapshot, req PaymentRequest) entity.OrderOutcome {
	outcome := entity.OrderOutcome{Group: index}

	if err := c.gate.LimitProcessing(ctx); err != nil {
		return outcome.Failed(err)
	}

	built, err := c.builder.Build(ctx, originID, customer, group, snapshot)
	outcome.CartID = built.CartID
	outcome.Warnings = built.Warnings
	if err != nil {
		return outcome.Failed(err)
	}

	sub := req
	sub.CartID = built.CartID
	orderID, err := c.checkout.placeAdmitted(ctx, sub)
	if err != nil {
		return outcome.Failed(err)
	}

	outcome.OrderID = orderID
	return outcome
}

func (c *Coordinator) claim(ctx context.Context, key string) error {
	if key == "" || c.idempotency == nil {
		return nil
	}
	ok, err := c.idempotency.Claim(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msgf("Error claiming idempotency key %s", key)
		return entity.Persistence("Unable to verify the idempotency key.", err)
	}
	if !ok {
		return entity.Conflictf("A request with idempotency key %s was already processed.", key)
	}
	return nil
}

// release frees the key after a call that placed nothing so the client can
// retry it.
func (c *Coordinator) release(ctx context.Context, key string) {
	if key == "" || c.idempotency == nil {
		return
	}
	if err := c.idempotency.Release(ctx, key); err != nil {
		logger.Error().Err(err).Msgf("Error releasing idempotency key %s", key)
	}
}

// SavePaymentInformation saves payment data on the cart. It never splits.
func (c *Coordinator) SavePaymentInformation(ctx context.Context, req PaymentRequest) error {
	return c.checkout.SavePaymentInformation(ctx, req)
}

// GetPaymentInformation returns the payment methods and totals of the cart.
func (c *Coordinator) GetPaymentInformation(ctx context.Context, cartID string, customerID int64) (entity.PaymentDetails, error) {
	return c.checkout.GetPaymentInformation(ctx, cartID, customerID)
}
