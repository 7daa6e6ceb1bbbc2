package entity_test

import (
	"checkout-service/internal/entity"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("placing: %w", entity.Validationf("Some of the products are disabled."))

	assert.True(t, errors.Is(err, entity.ErrValidation))
	assert.False(t, errors.Is(err, entity.ErrNotFound))
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	assert.Equal(t, "Some of the products are disabled.", entity.MessageOf(err))
}

func TestError_SafeMessageHidesCause(t *testing.T) {
	err := entity.NewError(entity.KindPlacement, "generic", errors.New("dial tcp 10.0.0.3:3306: refused"))

	assert.Contains(t, err.Error(), "refused")
	assert.Equal(t, "generic", err.SafeMessage())
	assert.Equal(t, entity.KindUnknown, entity.KindOf(errors.New("plain")))
	assert.Equal(t, entity.ErrorKind(""), entity.KindOf(nil))
}

func TestItemRequest_ReusableStripsTransientFields(t *testing.T) {
	orig := qty("3")
	req := entity.ItemRequest{
		ProductID: 7,
		Qty:       qty("3"),
		Options:   map[string]string{"12": "red"},
		Transient: entity.TransientFields{OriginalQty: &orig, URLEncoding: "aHR0cA,,"},
	}

	reused := req.Reusable()
	assert.True(t, reused.Transient.IsZero())
	assert.Equal(t, "red", reused.Options["12"])

	reused.Options["12"] = "blue"
	assert.Equal(t, "red", req.Options["12"], "options must not be shared")
	assert.False(t, req.Transient.IsZero())
}

func TestCart_QuantitiesCountVisibleItems(t *testing.T) {
	cart := &entity.Cart{Items: []entity.LineItem{
		{ID: 1, ProductID: 1, Qty: qty("2")},
		{ID: 2, ParentItemID: 1, ProductID: 2, Qty: qty("2")},
		{ID: 3, ProductID: 3, Qty: qty("1.5"), Disabled: true},
	}}

	assert.True(t, qty("3.5").Equal(cart.ItemsQty()))
	assert.True(t, qty("2").Equal(cart.PurchasableQty()))
	assert.Len(t, cart.VisibleItems(), 2)
}

func TestCart_AddProduct(t *testing.T) {
	cart := &entity.Cart{ID: "c1"}

	err := cart.AddProduct(entity.Product{ID: 5, SKU: "tee", Enabled: false}, entity.ItemRequest{Qty: qty("1")})
	assert.ErrorIs(t, err, entity.ErrValidation)

	err = cart.AddProduct(entity.Product{ID: 5, SKU: "tee", Enabled: true, Price: qty("9.5")}, entity.ItemRequest{Qty: qty("2")})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(5), cart.Items[0].Request.ProductID)
	assert.True(t, qty("19").Equal(cart.Items[0].RowTotal()))
	assert.True(t, cart.Changed)
}

func TestCart_SetBillingAddressPropagatesCustomer(t *testing.T) {
	cart := &entity.Cart{CustomerID: 42}
	billing := &entity.Address{ID: 9, FirstName: "Ann"}

	cart.SetBillingAddress(billing)

	assert.Equal(t, int64(42), cart.BillingAddress.CustomerID)
	assert.Zero(t, cart.BillingAddress.ID)
	assert.Equal(t, int64(9), billing.ID, "caller's address is not modified")
}

func TestShippingSnapshot_DropsIdentity(t *testing.T) {
	addr := &entity.Address{
		ID: 10, CustomerAddressID: 11, CustomerID: 12,
		Email: "a@b.c", FirstName: "Ann", LastName: "Lee", Street: []string{"1 Main"},
		City: "Austin", RegionID: 57, Postcode: "78701", CountryID: "US", Telephone: "555",
		ShippingMethod: "ups_ground", SaveInAddressBook: true,
	}

	snap := entity.NewShippingSnapshot(addr, "flatrate", "flatrate")

	assert.Zero(t, snap.Address.ID)
	assert.Zero(t, snap.Address.CustomerAddressID)
	assert.Zero(t, snap.Address.CustomerID)
	assert.Empty(t, snap.Address.ShippingMethod)
	assert.False(t, snap.Address.SaveInAddressBook)
	assert.Equal(t, "Austin", snap.Address.City)
	assert.Equal(t, "flatrate_flatrate", snap.ShippingMethod())
}

func TestAttributesEqual(t *testing.T) {
	a := &entity.Address{ID: 1, FirstName: "Ann", LastName: "Lee", Street: []string{"1 Main"}, City: "Austin", CountryID: "US", Telephone: "555"}
	b := a.Clone()
	b.ID = 2
	b.Email = "other@example.com"

	assert.True(t, entity.AttributesEqual(a, b))
	b.Postcode = "99999"
	assert.False(t, entity.AttributesEqual(a, b))
	assert.False(t, entity.AttributesEqual(a, nil))
}

func TestOutcomes_Status(t *testing.T) {
	ok := entity.OrderOutcome{OrderID: "100"}
	failed := entity.OrderOutcome{}.Failed(entity.Validationf("nope"))

	tests := []struct {
		name     string
		outcomes entity.Outcomes
		want     entity.OutcomeStatus
		joined   string
	}{
		{"all placed", entity.Outcomes{ok, {OrderID: "101"}}, entity.StatusComplete, "100,101"},
		{"some placed", entity.Outcomes{ok, failed}, entity.StatusPartial, "100"},
		{"none placed", entity.Outcomes{failed}, entity.StatusFailed, ""},
		{"empty", nil, entity.StatusFailed, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.outcomes.Status())
			assert.Equal(t, tc.joined, tc.outcomes.Joined())
		})
	}
	assert.Equal(t, entity.KindValidation, failed.Kind)
	assert.Equal(t, "nope", failed.Message)
}
