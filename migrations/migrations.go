package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

var retryDelay = 1 * time.Second

var checkoutTables = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		default_billing BIGINT NULL,
		default_shipping BIGINT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS customer_addresses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		firstname VARCHAR(255) NOT NULL,
		lastname VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL DEFAULT '',
		street JSON NOT NULL,
		city VARCHAR(255) NOT NULL,
		region_id BIGINT NOT NULL DEFAULT 0,
		postcode VARCHAR(32) NOT NULL,
		country_id CHAR(2) NOT NULL,
		telephone VARCHAR(64) NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sku VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(12,4) NOT NULL,
		enabled TINYINT(1) NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS carts (
		id CHAR(36) PRIMARY KEY,
		masked_id CHAR(32) NULL UNIQUE,
		customer_id BIGINT NOT NULL DEFAULT 0,
		customer_email VARCHAR(255) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		shipping_address JSON NULL,
		billing_address JSON NULL,
		payment JSON NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_carts_customer (customer_id, is_active)
	);`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		cart_id CHAR(36) NOT NULL,
		parent_item_id BIGINT NOT NULL DEFAULT 0,
		product_id BIGINT NOT NULL,
		sku VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(12,4) NOT NULL,
		qty DECIMAL(12,4) NOT NULL,
		disabled TINYINT(1) NOT NULL DEFAULT 0,
		buy_request JSON NOT NULL,
		FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE
	);`,
}

var orderTables = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		increment_id VARCHAR(32) NOT NULL UNIQUE,
		cart_id CHAR(36) NOT NULL,
		customer_id BIGINT NOT NULL DEFAULT 0,
		customer_email VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL,
		qty DECIMAL(12,4) NOT NULL,
		subtotal DECIMAL(12,4) NOT NULL,
		shipping_amount DECIMAL(12,4) NOT NULL,
		grand_total DECIMAL(12,4) NOT NULL,
		shipping_method VARCHAR(64) NOT NULL,
		payment_method VARCHAR(64) NOT NULL,
		shipping_address JSON NOT NULL,
		billing_address JSON NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		sku VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		qty DECIMAL(12,4) NOT NULL,
		price DECIMAL(12,4) NOT NULL,
		row_total DECIMAL(12,4) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);`,
}

// AutoMigrateCheckout creates the cart, customer and product tables if they
// do not exist.
func AutoMigrateCheckout(retries int, db *sql.DB) error {
	for _, query := range checkoutTables {
		if err := execWithRetry(db, query, retries); err != nil {
			return err
		}
	}
	return nil
}

// AutoMigrateOrders creates the orders and order_items tables on every
// shard.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	for i, db := range dbs {
		for _, query := range orderTables {
			if err := execWithRetry(db, query, retries); err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
		}
	}
	return nil
}

func execWithRetry(db *sql.DB, query string, retries int) error {
	_, err := db.Exec(query)
	if err != nil {
		// Retry creating the table
		for i := 0; i < retries; i++ {
			time.Sleep(retryDelay)
			_, err = db.Exec(query)
			if err == nil {
				break
			}
		}
	}
	return err
}
