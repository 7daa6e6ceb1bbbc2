package service

import (
	"checkout-service/internal/entity"
	"context"
	"math/rand"
	"strconv"
	"time"
)

// OrderService turns a ready cart into an order.
type OrderService struct {
	carts     CartStore
	inactive  CartDeactivator
	orderRepo OrderWriter
	events    EventPublisher

	now         func() time.Time
	incrementID func() string
}

func NewOrderService(carts CartStore, inactive CartDeactivator, orderRepo OrderWriter, events EventPublisher) *OrderService {
	return &OrderService{
		carts:       carts,
		inactive:    inactive,
		orderRepo:   orderRepo,
		events:      events,
		now:         time.Now,
		incrementID: randomIncrementID,
	}
}

// PlaceOrder validates the cart, writes the order and deactivates the cart.
// It returns the order increment id.
func (s *OrderService) PlaceOrder(ctx context.Context, cartID string) (string, error) {
	cart, err := s.carts.GetActive(ctx, cartID)
	if err != nil {
		return "", err
	}
	if err := validateForOrder(cart); err != nil {
		return "", err
	}

	order := s.buildOrder(cart)
	createdOrder, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating order for cart %s", cartID)
		return "", err
	}

	if err := s.inactive.Deactivate(ctx, cartID); err != nil {
		logger.Error().Err(err).Msgf("Error deactivating cart %s after order %s", cartID, createdOrder.IncrementID)
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, createdOrder); err != nil {
			logger.Error().Err(err).Msgf("Error publishing order %s", createdOrder.IncrementID)
		}
	}

	return createdOrder.IncrementID, nil
}

func validateForOrder(cart *entity.Cart) error {
	if len(cart.VisibleItems()) == 0 {
		return entity.Validationf("The cart is empty. Add an item to cart and try again.")
	}
	if !cart.PurchasableQty().IsPositive() {
		return entity.Validationf(DisabledProductsMessage)
	}
	if err := cart.ShippingAddress.Validate(); err != nil {
		return err
	}
	if cart.ShippingAddress.SelectedRate() == nil {
		return entity.Validationf("The shipping method is missing. Select the shipping method and try again.")
	}
	if cart.BillingAddress == nil {
		return entity.Validationf("Please check the billing address information.")
	}
	if cart.Payment == nil || cart.Payment.Method == "" {
		return entity.Validationf("Enter a valid payment method and try again.")
	}
	return nil
}

func (s *OrderService) buildOrder(cart *entity.Cart) *entity.Order {
	totals := CollectTotals(cart)

	email := cart.CustomerEmail
	if email == "" && cart.BillingAddress != nil {
		email = cart.BillingAddress.Email
	}

	order := &entity.Order{
		IncrementID:     s.incrementID(),
		CartID:          cart.ID,
		CustomerID:      cart.CustomerID,
		CustomerEmail:   email,
		Status:          entity.OrderStatusPending,
		Qty:             totals.ItemsQty,
		Subtotal:        totals.Subtotal,
		ShippingAmount:  totals.ShippingAmount,
		GrandTotal:      totals.GrandTotal,
		ShippingMethod:  cart.ShippingAddress.ShippingMethod,
		PaymentMethod:   cart.Payment.Method,
		ShippingAddress: cart.ShippingAddress.Clone(),
		BillingAddress:  cart.BillingAddress.Clone(),
		CreatedAt:       s.now(),
	}

	for _, item := range cart.VisibleItems() {
		if item.Disabled {
			continue
		}
		order.Items = append(order.Items, entity.OrderItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
			RowTotal:  item.RowTotal(),
		})
	}

	return order
}

func randomIncrementID() string {
	return strconv.FormatInt(100000000+rand.Int63n(900000000), 10)
}
