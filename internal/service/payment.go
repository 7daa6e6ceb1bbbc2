package service

import (
	"checkout-service/internal/entity"
	"context"
	"slices"
)

// PaymentMethodService offers a fixed list of offline payment methods.
type PaymentMethodService struct {
	carts   CartStore
	methods []entity.PaymentMethodInfo
}

func NewPaymentMethodService(carts CartStore, methods []entity.PaymentMethodInfo) *PaymentMethodService {
	return &PaymentMethodService{carts: carts, methods: methods}
}

func (s *PaymentMethodService) List(ctx context.Context, cartID string) ([]entity.PaymentMethodInfo, error) {
	if _, err := s.carts.GetActive(ctx, cartID); err != nil {
		return nil, err
	}
	return slices.Clone(s.methods), nil
}

func (s *PaymentMethodService) SetPaymentMethod(ctx context.Context, cartID string, method entity.PaymentMethod) error {
	available := slices.ContainsFunc(s.methods, func(m entity.PaymentMethodInfo) bool {
		return m.Code == method.Method
	})
	if !available {
		return entity.Validationf("The requested Payment Method is not available.")
	}

	cart, err := s.carts.GetActive(ctx, cartID)
	if err != nil {
		return err
	}

	cart.Payment = &method
	cart.Changed = true
	if err := s.carts.Save(ctx, cart); err != nil {
		logger.Error().Err(err).Msgf("Error saving payment method for cart %s", cartID)
		return entity.Persistence("The payment method could not be saved.", err)
	}
	return nil
}
