package repository

import (
	"checkout-service/internal/entity"
	"checkout-service/internal/sharding"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(incrementID string) *sql.DB {
	return r.dbShards[r.router.GetShard(incrementID)]
}

// CreateOrder writes the order and its items on the shard owning the
// increment id.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if len(order.Items) == 0 {
		return nil, entity.Validationf("The order has no items.")
	}

	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return nil, err
	}

	db := r.shard(order.IncrementID)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// Insert order
	orderQuery := `INSERT INTO orders (increment_id, cart_id, customer_id, customer_email, status, qty, subtotal, shipping_amount, grand_total, shipping_method, payment_method, shipping_address, billing_address, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.IncrementID, order.CartID, order.CustomerID, order.CustomerEmail, order.Status, order.Qty, order.Subtotal, order.ShippingAmount, order.GrandTotal, order.ShippingMethod, order.PaymentMethod, shipping, billing, order.CreatedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Insert order items with batch
	itemQuery := `INSERT INTO order_items (order_id, product_id, sku, name, qty, price, row_total) VALUES `

	// Build the query
	var values []interface{}
	for _, item := range order.Items {
		itemQuery += "(?, ?, ?, ?, ?, ?, ?),"
		values = append(values, orderID, item.ProductID, item.SKU, item.Name, item.Qty, item.Price, item.RowTotal)
	}

	// Remove the trailing comma
	itemQuery = itemQuery[:len(itemQuery)-1]

	_, err = tx.ExecContext(ctx, itemQuery, values...)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Commit the transaction
	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	order.ID = orderID
	return order, nil
}

func (r *OrderRepository) GetByIncrementID(ctx context.Context, incrementID string) (*entity.Order, error) {
	orderQuery := `SELECT id, increment_id, cart_id, customer_id, customer_email, status, qty, subtotal, shipping_amount, grand_total, shipping_method, payment_method, shipping_address, billing_address, created_at FROM orders WHERE increment_id = ?`
	itemQuery := `SELECT product_id, sku, name, qty, price, row_total FROM order_items WHERE order_id = ? ORDER BY id`

	db := r.shard(incrementID)

	order := &entity.Order{}
	var shipping, billing []byte
	err := db.QueryRowContext(ctx, orderQuery, incrementID).Scan(&order.ID, &order.IncrementID, &order.CartID, &order.CustomerID, &order.CustomerEmail, &order.Status, &order.Qty, &order.Subtotal, &order.ShippingAmount, &order.GrandTotal, &order.ShippingMethod, &order.PaymentMethod, &shipping, &billing, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundf("No such entity with increment_id = %s", incrementID)
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalNullable(shipping, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(billing, &order.BillingAddress); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, itemQuery, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.OrderItem{}
		err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Qty, &item.Price, &item.RowTotal)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	return order, rows.Err()
}
