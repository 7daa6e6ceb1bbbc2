package repository

import (
	"checkout-service/internal/entity"
	"context"
	"database/sql"
	"encoding/json"
)

// AddressRepository stores customer address book entries.
type AddressRepository struct {
	db *sql.DB
}

func NewAddressRepository(db *sql.DB) *AddressRepository {
	return &AddressRepository{db}
}

// Save inserts the address and applies its default flags to the customer.
// addr.ID is set on success.
func (r *AddressRepository) Save(ctx context.Context, addr *entity.CustomerAddress) error {
	street, err := json.Marshal(addr.Street)
	if err != nil {
		return err
	}

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `INSERT INTO customer_addresses (customer_id, firstname, lastname, company, street, city, region_id, postcode, country_id, telephone) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query, addr.CustomerID, addr.FirstName, addr.LastName, addr.Company, street, addr.City, addr.RegionID, addr.Postcode, addr.CountryID, addr.Telephone)
	if err != nil {
		tx.Rollback()
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	if addr.IsDefaultShipping {
		_, err = tx.ExecContext(ctx, `UPDATE customers SET default_shipping = ? WHERE id = ?`, id, addr.CustomerID)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if addr.IsDefaultBilling {
		_, err = tx.ExecContext(ctx, `UPDATE customers SET default_billing = ? WHERE id = ?`, id, addr.CustomerID)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	// Commit the transaction
	err = tx.Commit()
	if err != nil {
		return err
	}

	addr.ID = id
	return nil
}
