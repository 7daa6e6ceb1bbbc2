package service

import (
	"checkout-service/internal/entity"
	"context"
)

type CartStore interface {
	GetActive(ctx context.Context, id string) (*entity.Cart, error)
	Save(ctx context.Context, cart *entity.Cart) error
	CreateEmpty(ctx context.Context, cc entity.CustomerContext) (string, error)
}

type MaskedCartStore interface {
	GetActiveByMaskedID(ctx context.Context, maskedID string) (*entity.Cart, error)
}

type CartDeactivator interface {
	Deactivate(ctx context.Context, id string) error
}

type ProductResolver interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
}

type AddressBook interface {
	Save(ctx context.Context, addr *entity.CustomerAddress) error
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
}

type ShippingInformation interface {
	SaveAddressInformation(ctx context.Context, cartID string, snapshot entity.ShippingSnapshot) error
}

type PaymentMethods interface {
	List(ctx context.Context, cartID string) ([]entity.PaymentMethodInfo, error)
	SetPaymentMethod(ctx context.Context, cartID string, method entity.PaymentMethod) error
}

type TotalsCollector interface {
	Get(ctx context.Context, cartID string) (entity.Totals, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, cartID string) (string, error)
}

type RateGate interface {
	LimitProcessing(ctx context.Context) error
	LimitSaving(ctx context.Context) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *entity.Order) error
	PublishCartSplit(ctx context.Context, summary entity.SplitSummary) error
}

type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
