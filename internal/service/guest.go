package service

import (
	"checkout-service/internal/entity"
	"context"
	"net/mail"
)

// GuestPaymentRequest addresses a guest cart by its masked id.
type GuestPaymentRequest struct {
	MaskedCartID   string
	Email          string
	PaymentMethod  entity.PaymentMethod
	BillingAddress *entity.Address
	IdempotencyKey string
}

// GuestCheckout exposes the payment operations to guests. It resolves the
// masked cart id and delegates to a Coordinator.
type GuestCheckout struct {
	masks       MaskedCartStore
	coordinator *Coordinator
}

func NewGuestCheckout(masks MaskedCartStore, coordinator *Coordinator) *GuestCheckout {
	return &GuestCheckout{masks: masks, coordinator: coordinator}
}

func (g *GuestCheckout) SavePaymentAndPlaceOrder(ctx context.Context, req GuestPaymentRequest) (entity.Outcomes, error) {
	inner, err := g.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.coordinator.SavePaymentAndPlaceOrder(ctx, inner)
}

func (g *GuestCheckout) SavePaymentInformation(ctx context.Context, req GuestPaymentRequest) error {
	inner, err := g.resolve(ctx, req)
	if err != nil {
		return err
	}
	return g.coordinator.SavePaymentInformation(ctx, inner)
}

func (g *GuestCheckout) GetPaymentInformation(ctx context.Context, maskedCartID string) (entity.PaymentDetails, error) {
	cart, err := g.guestCart(ctx, maskedCartID)
	if err != nil {
		return entity.PaymentDetails{}, err
	}
	return g.coordinator.GetPaymentInformation(ctx, cart.ID, 0)
}

func (g *GuestCheckout) resolve(ctx context.Context, req GuestPaymentRequest) (PaymentRequest, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return PaymentRequest{}, entity.Validationf("The email address is invalid. Verify the email address and try again.")
	}

	cart, err := g.guestCart(ctx, req.MaskedCartID)
	if err != nil {
		return PaymentRequest{}, err
	}

	return PaymentRequest{
		CartID:         cart.ID,
		Email:          req.Email,
		PaymentMethod:  req.PaymentMethod,
		BillingAddress: req.BillingAddress,
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}

// guestCart only returns carts without a customer.
func (g *GuestCheckout) guestCart(ctx context.Context, maskedCartID string) (*entity.Cart, error) {
	cart, err := g.masks.GetActiveByMaskedID(ctx, maskedCartID)
	if err != nil {
		return nil, err
	}
	if cart.CustomerID != 0 {
		return nil, entity.NotFoundf("No such entity with cartId = %s", maskedCartID)
	}
	return cart, nil
}
