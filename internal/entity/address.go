package entity

import (
	"github.com/shopspring/decimal"
	"strings"
)

// Address is a cart address. ID, CustomerAddressID and CustomerID are
// identity fields; everything else describes the location.
type Address struct {
	ID                int64    `json:"id,omitempty"`
	CustomerAddressID int64    `json:"customer_address_id,omitempty"`
	CustomerID        int64    `json:"customer_id,omitempty"`
	Email             string   `json:"email"`
	FirstName         string   `json:"firstname"`
	LastName          string   `json:"lastname"`
	Company           string   `json:"company,omitempty"`
	Street            []string `json:"street"`
	City              string   `json:"city"`
	RegionID          int64    `json:"region_id,omitempty"`
	Postcode          string   `json:"postcode"`
	CountryID         string   `json:"country_id"`
	Telephone         string   `json:"telephone"`

	ShippingMethod    string         `json:"shipping_method,omitempty"`
	ShippingRates     []ShippingRate `json:"shipping_rates,omitempty"`
	LimitCarrier      string         `json:"limit_carrier,omitempty"`
	SameAsBilling     bool           `json:"same_as_billing,omitempty"`
	SaveInAddressBook bool           `json:"save_in_address_book,omitempty"`
}

type ShippingRate struct {
	Carrier string          `json:"carrier"`
	Method  string          `json:"method"`
	Price   decimal.Decimal `json:"price"`
}

// Code is the "<carrier>_<method>" form stored on the address.
func (r ShippingRate) Code() string {
	return ShippingMethodCode(r.Carrier, r.Method)
}

func ShippingMethodCode(carrier, method string) string {
	return carrier + "_" + method
}

// RateByCode returns the collected rate for code, or nil.
func (a *Address) RateByCode(code string) *ShippingRate {
	for i := range a.ShippingRates {
		if a.ShippingRates[i].Code() == code {
			return &a.ShippingRates[i]
		}
	}
	return nil
}

// SelectedRate is the rate matching ShippingMethod.
func (a *Address) SelectedRate() *ShippingRate {
	if a == nil || a.ShippingMethod == "" {
		return nil
	}
	return a.RateByCode(a.ShippingMethod)
}

func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	c := *a
	c.Street = append([]string(nil), a.Street...)
	c.ShippingRates = append([]ShippingRate(nil), a.ShippingRates...)
	return &c
}

// AttributesEqual reports whether a and b describe the same person at the
// same location. Identity fields, email and shipping state are ignored.
func AttributesEqual(a, b *Address) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.FirstName, b.FirstName) &&
		strings.EqualFold(a.LastName, b.LastName) &&
		a.Company == b.Company &&
		strings.Join(a.Street, "\n") == strings.Join(b.Street, "\n") &&
		a.City == b.City &&
		a.RegionID == b.RegionID &&
		a.Postcode == b.Postcode &&
		a.CountryID == b.CountryID &&
		a.Telephone == b.Telephone
}

// Validate checks the fields an address needs before it can ship.
func (a *Address) Validate() error {
	if a == nil {
		return Validationf("The shipping address is missing. Set the address and try again.")
	}
	var missing []string
	if a.FirstName == "" {
		missing = append(missing, "firstname")
	}
	if a.LastName == "" {
		missing = append(missing, "lastname")
	}
	if len(a.Street) == 0 || strings.TrimSpace(a.Street[0]) == "" {
		missing = append(missing, "street")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.CountryID == "" {
		missing = append(missing, "country_id")
	}
	if a.Telephone == "" {
		missing = append(missing, "telephone")
	}
	if len(missing) > 0 {
		return Validationf("Please check the address information. Required: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ShippingSnapshot is the identity-free copy of an origin cart's shipping
// address plus a fixed carrier and method, applied to every sub-cart.
type ShippingSnapshot struct {
	Address     Address `json:"address"`
	CarrierCode string  `json:"carrier_code"`
	MethodCode  string  `json:"method_code"`
}

// NewShippingSnapshot copies the transferable fields of addr.
func NewShippingSnapshot(addr *Address, carrier, method string) ShippingSnapshot {
	s := ShippingSnapshot{CarrierCode: carrier, MethodCode: method}
	if addr == nil {
		return s
	}
	s.Address = Address{
		Email:     addr.Email,
		CountryID: addr.CountryID,
		RegionID:  addr.RegionID,
		Street:    append([]string(nil), addr.Street...),
		Company:   addr.Company,
		Telephone: addr.Telephone,
		Postcode:  addr.Postcode,
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		City:      addr.City,
	}
	return s
}

// ShippingMethod is the "<carrier>_<method>" code the snapshot selects.
func (s ShippingSnapshot) ShippingMethod() string {
	return ShippingMethodCode(s.CarrierCode, s.MethodCode)
}

// CustomerAddress is an address book record.
type CustomerAddress struct {
	ID                int64    `json:"id"`
	CustomerID        int64    `json:"customer_id"`
	FirstName         string   `json:"firstname"`
	LastName          string   `json:"lastname"`
	Company           string   `json:"company,omitempty"`
	Street            []string `json:"street"`
	City              string   `json:"city"`
	RegionID          int64    `json:"region_id,omitempty"`
	Postcode          string   `json:"postcode"`
	CountryID         string   `json:"country_id"`
	Telephone         string   `json:"telephone"`
	IsDefaultShipping bool     `json:"default_shipping"`
	IsDefaultBilling  bool     `json:"default_billing"`
}

// ExportCustomerAddress converts a cart address into an address book
// record.
func (a *Address) ExportCustomerAddress() *CustomerAddress {
	return &CustomerAddress{
		CustomerID: a.CustomerID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Street:     append([]string(nil), a.Street...),
		City:       a.City,
		RegionID:   a.RegionID,
		Postcode:   a.Postcode,
		CountryID:  a.CountryID,
		Telephone:  a.Telephone,
	}
}
