package repository

import (
	"checkout-service/internal/entity"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"github.com/google/uuid"
	"strings"
	"time"
)

type CartRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db, now: time.Now}
}

const cartColumns = `id, masked_id, customer_id, customer_email, is_active, shipping_address, billing_address, payment, created_at, updated_at`

// GetActive loads an active cart with its items and customer.
func (r *CartRepository) GetActive(ctx context.Context, id string) (*entity.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = ? AND is_active = 1`
	cart, err := r.scanCart(ctx, r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundf("No such entity with cartId = %s", id)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetActiveByMaskedID resolves a guest cart by its masked id.
func (r *CartRepository) GetActiveByMaskedID(ctx context.Context, maskedID string) (*entity.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE masked_id = ? AND is_active = 1`
	cart, err := r.scanCart(ctx, r.db.QueryRowContext(ctx, query, maskedID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundf("No such entity with cartId = %s", maskedID)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *CartRepository) scanCart(ctx context.Context, row *sql.Row) (*entity.Cart, error) {
	var (
		cart                       entity.Cart
		maskedID                   sql.NullString
		shipping, billing, payment []byte
	)
	err := row.Scan(&cart.ID, &maskedID, &cart.CustomerID, &cart.CustomerEmail, &cart.Active, &shipping, &billing, &payment, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cart.MaskedID = maskedID.String

	if err := unmarshalNullable(shipping, &cart.ShippingAddress); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(billing, &cart.BillingAddress); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(payment, &cart.Payment); err != nil {
		return nil, err
	}

	cart.Items, err = r.getItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	if cart.CustomerID != 0 {
		cart.Customer, err = r.getCustomer(ctx, cart.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	return &cart, nil
}

func (r *CartRepository) getItems(ctx context.Context, cartID string) ([]entity.LineItem, error) {
	query := `SELECT id, parent_item_id, product_id, sku, name, price, qty, disabled, buy_request FROM cart_items WHERE cart_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var (
			item       entity.LineItem
			parentID   sql.NullInt64
			buyRequest []byte
		)
		err := rows.Scan(&item.ID, &parentID, &item.ProductID, &item.SKU, &item.Name, &item.Price, &item.Qty, &item.Disabled, &buyRequest)
		if err != nil {
			return nil, err
		}
		item.ParentItemID = parentID.Int64
		if len(buyRequest) > 0 {
			if err := json.Unmarshal(buyRequest, &item.Request); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *CartRepository) getCustomer(ctx context.Context, id int64) (*entity.Customer, error) {
	query := `SELECT id, email, default_billing, default_shipping FROM customers WHERE id = ?`

	var (
		customer                        entity.Customer
		defaultBilling, defaultShipping sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&customer.ID, &customer.Email, &defaultBilling, &defaultShipping)
	if errors.Is(err, sql.ErrNoRows) {
		// carts may outlive the customer record
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	customer.DefaultBillingID = defaultBilling.Int64
	customer.DefaultShippingID = defaultShipping.Int64
	return &customer, nil
}

// CreateEmpty always inserts a fresh cart. Guest carts also get a masked id.
func (r *CartRepository) CreateEmpty(ctx context.Context, cc entity.CustomerContext) (string, error) {
	id := uuid.NewString()
	var maskedID sql.NullString
	if cc.IsGuest() {
		maskedID = sql.NullString{String: strings.ReplaceAll(uuid.NewString(), "-", ""), Valid: true}
	}

	now := r.now()
	query := `INSERT INTO carts (id, masked_id, customer_id, customer_email, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, 1, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, id, maskedID, cc.CustomerID, cc.Email, now, now)
	if err != nil {
		return "", err
	}

	return id, nil
}

// Save writes the cart row and replaces its items in one transaction.
func (r *CartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	shipping, err := marshalNullable(cart.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := marshalNullable(cart.BillingAddress)
	if err != nil {
		return err
	}
	payment, err := marshalNullable(cart.Payment)
	if err != nil {
		return err
	}

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	cart.UpdatedAt = r.now()
	cartQuery := `UPDATE carts SET customer_id = ?, customer_email = ?, is_active = ?, shipping_address = ?, billing_address = ?, payment = ?, updated_at = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, cartQuery, cart.CustomerID, cart.CustomerEmail, cart.Active, shipping, billing, payment, cart.UpdatedAt, cart.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if len(cart.Items) > 0 {
		// Insert items with batch
		itemQuery := `INSERT INTO cart_items (cart_id, parent_item_id, product_id, sku, name, price, qty, disabled, buy_request) VALUES `
		var values []interface{}
		for _, item := range cart.Items {
			buyRequest, err := json.Marshal(item.Request)
			if err != nil {
				tx.Rollback()
				return err
			}
			var parentID sql.NullInt64
			if item.ParentItemID != 0 {
				parentID = sql.NullInt64{Int64: item.ParentItemID, Valid: true}
			}
			itemQuery += "(?, ?, ?, ?, ?, ?, ?, ?, ?),"
			values = append(values, cart.ID, parentID, item.ProductID, item.SKU, item.Name, item.Price, item.Qty, item.Disabled, buyRequest)
		}

		// Remove the trailing comma
		itemQuery = itemQuery[:len(itemQuery)-1]

		_, err = tx.ExecContext(ctx, itemQuery, values...)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	// Commit the transaction
	return tx.Commit()
}

// Deactivate marks a placed cart inactive.
func (r *CartRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE carts SET is_active = 0, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, r.now(), id)
	return err
}

func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *entity.Address:
		if t == nil {
			return nil, nil
		}
	case *entity.PaymentMethod:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
