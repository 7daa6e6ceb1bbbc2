package service

import (
	"checkout-service/internal/entity"
	"checkout-service/internal/grouping"
	"context"
	"fmt"
)

// BuildResult is a materialized sub-cart plus whatever went wrong on the
// way that did not stop it from being built.
type BuildResult struct {
	CartID   string
	Warnings []entity.Warning
}

// SubCartBuilder turns one item group into a fresh cart.
type SubCartBuilder struct {
	carts    CartStore
	inactive CartDeactivator
	products ProductResolver
	shipping ShippingInformation
}

func NewSubCartBuilder(carts CartStore, inactive CartDeactivator, products ProductResolver, shipping ShippingInformation) *SubCartBuilder {
	return &SubCartBuilder{carts: carts, inactive: inactive, products: products, shipping: shipping}
}

// Build creates an empty cart for customer, adds every item of group and
// applies the shipping snapshot. Items that cannot be added and a failed
// shipping save are reported as warnings. originID is never modified.
func (b *SubCartBuilder) Build(ctx context.Context, originID string, customer entity.CustomerContext, group grouping.Group, snapshot entity.ShippingSnapshot) (BuildResult, error) {
	var result BuildResult

	cartID, err := b.carts.CreateEmpty(ctx, customer)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating sub-cart for cart %s", originID)
		return result, entity.NewError(entity.KindBuild, "Unable to create a cart for the split order.", err)
	}
	if cartID == originID {
		return result, entity.NewError(entity.KindBuild, fmt.Sprintf("Cart store returned the original cart %s as a new cart.", originID), nil)
	}
	result.CartID = cartID

	cart, err := b.carts.GetActive(ctx, cartID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading sub-cart %s", cartID)
		b.discard(ctx, cartID)
		return result, entity.NewError(entity.KindBuild, "Unable to load the cart for the split order.", err)
	}
	if customer.IsGuest() && customer.Email != "" {
		cart.CustomerEmail = customer.Email
	}

	for _, req := range group.Items {
		if err := b.addItem(ctx, cart, req); err != nil {
			logger.Warn().Err(err).Msgf("Product %d was not added to sub-cart %s", req.ProductID, cartID)
			result.Warnings = append(result.Warnings, entity.Warning{
				Kind:      entity.KindPartialItem,
				ProductID: req.ProductID,
				Message:   fmt.Sprintf("Product %d could not be added: %s", req.ProductID, entity.MessageOf(err)),
			})
		}
	}

	if err := b.carts.Save(ctx, cart); err != nil {
		logger.Error().Err(err).Msgf("Error saving sub-cart %s", cartID)
		b.discard(ctx, cartID)
		return result, entity.NewError(entity.KindBuild, "Unable to save the cart for the split order.", err)
	}

	if err := b.shipping.SaveAddressInformation(ctx, cartID, snapshot); err != nil {
		logger.Warn().Err(err).Msgf("Error saving shipping information for sub-cart %s", cartID)
		result.Warnings = append(result.Warnings, entity.Warning{
			Kind:    entity.KindOf(err),
			Message: "Shipping information could not be saved: " + entity.MessageOf(err),
		})
	}

	return result, nil
}

// discard deactivates a sub-cart that will never be placed.
func (b *SubCartBuilder) discard(ctx context.Context, cartID string) {
	if err := b.inactive.Deactivate(ctx, cartID); err != nil {
		logger.Error().Err(err).Msgf("Error deactivating abandoned sub-cart %s", cartID)
	}
}

func (b *SubCartBuilder) addItem(ctx context.Context, cart *entity.Cart, req entity.ItemRequest) error {
	product, err := b.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return err
	}
	return cart.AddProduct(*product, req.Reusable())
}
