package repository

import (
	"checkout-service/internal/entity"
	"context"
	"errors"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newCartRepo(t *testing.T) (*CartRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewCartRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

var cartCols = []string{"id", "masked_id", "customer_id", "customer_email", "is_active", "shipping_address", "billing_address", "payment", "created_at", "updated_at"}
var itemCols = []string{"id", "parent_item_id", "product_id", "sku", "name", "price", "qty", "disabled", "buy_request"}

func TestCartRepository_GetActive(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectQuery("FROM carts WHERE id = (.+) AND is_active = 1").
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow(
			"cart-1", nil, int64(7), "ann@example.com", true,
			[]byte(`{"firstname":"Ann","lastname":"Lee","street":["1 Main"],"city":"Austin","postcode":"78701","country_id":"US","telephone":"555","shipping_method":"flatrate_flatrate"}`),
			nil, nil, fixedNow, fixedNow,
		))
	mock.ExpectQuery("FROM cart_items WHERE cart_id = (.+)").
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(int64(1), nil, int64(10), "tee", "Tee", "9.50", "3", false, []byte(`{"product":10,"qty":"3","transient":{"uenc":"x"}}`)).
			AddRow(int64(2), int64(1), int64(11), "tee-red", "Tee Red", "0", "3", false, nil))
	mock.ExpectQuery("FROM customers WHERE id = (.+)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "default_billing", "default_shipping"}).
			AddRow(int64(7), "ann@example.com", nil, int64(12)))

	cart, err := repo.GetActive(context.Background(), "cart-1")
	require.NoError(t, err)

	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, int64(7), cart.CustomerID)
	require.NotNil(t, cart.ShippingAddress)
	assert.Equal(t, "Austin", cart.ShippingAddress.City)
	assert.Nil(t, cart.BillingAddress)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "x", cart.Items[0].Request.Transient.URLEncoding)
	assert.Equal(t, int64(1), cart.Items[1].ParentItemID)
	assert.True(t, decimal.NewFromInt(3).Equal(cart.ItemsQty()))
	require.NotNil(t, cart.Customer)
	assert.Equal(t, int64(12), cart.Customer.DefaultShippingID)
	assert.Zero(t, cart.Customer.DefaultBillingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_GetActiveNotFound(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectQuery("FROM carts WHERE id = (.+)").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cartCols))

	_, err := repo.GetActive(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCartRepository_GetActiveByMaskedID(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectQuery("FROM carts WHERE masked_id = (.+)").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow("cart-9", "abc123", int64(0), "", true, nil, nil, nil, fixedNow, fixedNow))
	mock.ExpectQuery("FROM cart_items").
		WithArgs("cart-9").
		WillReturnRows(sqlmock.NewRows(itemCols))

	cart, err := repo.GetActiveByMaskedID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "cart-9", cart.ID)
	assert.Equal(t, "abc123", cart.MaskedID)
	assert.Nil(t, cart.Customer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_CreateEmpty(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectExec("INSERT INTO carts").
		WithArgs(sqlmock.AnyArg(), nil, int64(7), "ann@example.com", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.CreateEmpty(context.Background(), entity.CustomerContext{CustomerID: 7, Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	mock.ExpectExec("INSERT INTO carts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(0), "", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	guestID, err := repo.CreateEmpty(context.Background(), entity.CustomerContext{})
	require.NoError(t, err)
	assert.NotEqual(t, id, guestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_SaveReplacesItems(t *testing.T) {
	repo, mock := newCartRepo(t)
	cart := &entity.Cart{ID: "cart-2", Active: true, Items: []entity.LineItem{
		{ProductID: 10, SKU: "tee", Qty: decimal.NewFromInt(2), Price: decimal.NewFromInt(5), Request: entity.ItemRequest{ProductID: 10, Qty: decimal.NewFromInt(2)}},
		{ProductID: 12, SKU: "mug", Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(8)},
	}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE carts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items WHERE cart_id = (.+)").
		WithArgs("cart-2").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO cart_items \(.+\) VALUES \(.+\),\(.+\)$`).
		WillReturnResult(sqlmock.NewResult(20, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), cart))
	assert.Equal(t, fixedNow, cart.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_SaveRollsBackOnItemFailure(t *testing.T) {
	repo, mock := newCartRepo(t)
	cart := &entity.Cart{ID: "cart-3", Items: []entity.LineItem{{ProductID: 10, Qty: decimal.NewFromInt(1)}}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE carts SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO cart_items").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), cart)
	assert.EqualError(t, err, "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Deactivate(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectExec("UPDATE carts SET is_active = 0").
		WithArgs(fixedNow, "cart-4").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "cart-4"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
