package service

import (
	"checkout-service/internal/entity"
	"context"
	"github.com/shopspring/decimal"
)

// RateProvider quotes shipping rates for a cart and destination.
type RateProvider interface {
	Collect(ctx context.Context, cart *entity.Cart, dest *entity.Address) ([]entity.ShippingRate, error)
}

// FlatRate charges a fixed price per purchasable unit.
type FlatRate struct {
	Carrier      string
	Method       string
	PricePerUnit decimal.Decimal
}

func (f FlatRate) Collect(_ context.Context, cart *entity.Cart, dest *entity.Address) ([]entity.ShippingRate, error) {
	if dest.LimitCarrier != "" && dest.LimitCarrier != f.Carrier {
		return nil, nil
	}
	return []entity.ShippingRate{{
		Carrier: f.Carrier,
		Method:  f.Method,
		Price:   f.PricePerUnit.Mul(cart.PurchasableQty()),
	}}, nil
}

type ShippingInformationService struct {
	carts CartStore
	rates RateProvider
}

func NewShippingInformationService(carts CartStore, rates RateProvider) *ShippingInformationService {
	return &ShippingInformationService{carts: carts, rates: rates}
}

// SaveAddressInformation sets the shipping address and method of a cart.
func (s *ShippingInformationService) SaveAddressInformation(ctx context.Context, cartID string, snapshot entity.ShippingSnapshot) error {
	cart, err := s.carts.GetActive(ctx, cartID)
	if err != nil {
		return err
	}
	if len(cart.VisibleItems()) == 0 {
		return entity.Validationf("The shipping method can't be set for an empty cart. Add an item to cart and try again.")
	}

	addr := snapshot.Address.Clone()
	if err := addr.Validate(); err != nil {
		return err
	}

	rates, err := s.rates.Collect(ctx, cart, addr)
	if err != nil {
		return err
	}
	addr.ShippingRates = rates

	method := snapshot.ShippingMethod()
	if addr.RateByCode(method) == nil {
		return entity.Validationf("Carrier with such method not found: %s, %s", snapshot.CarrierCode, snapshot.MethodCode)
	}
	addr.ShippingMethod = method
	if cart.ShippingAddress != nil {
		addr.ID = cart.ShippingAddress.ID
	}
	addr.CustomerID = cart.CustomerID

	cart.ShippingAddress = addr
	cart.Changed = true
	if err := s.carts.Save(ctx, cart); err != nil {
		logger.Error().Err(err).Msgf("Error saving shipping information for cart %s", cartID)
		return entity.Persistence("The shipping information was unable to be saved. Verify the input data and try again.", err)
	}
	return nil
}
