// Package masterdata manages the reference entities the billing domains
// depend on: client companies, their ships, the billable operation
// catalogue and the expense lookups (categories, suppliers, payment
// methods).
package masterdata

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Common masterdata errors.
var (
	ErrNotFound = errors.New("masterdata: record not found")
	ErrInUse    = errors.New("masterdata: record is referenced and cannot be removed")
)

// Company is a client account. Companies are soft-deleted via Active.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	NINEA     string    `json:"ninea"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ship belongs to a company. Ships are soft-deleted via Active.
type Ship struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	IMO       string    `json:"imo"`
	Flag      string    `json:"flag"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Operation is a billable service from the catalogue. Code is unique.
// PriceEUR is derived from the exchange rate when not supplied.
type Operation struct {
	ID          int64            `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	PriceXOF    int64            `json:"price_xof"`
	PriceEUR    *decimal.Decimal `json:"price_eur,omitempty"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Category classifies expenses.
type Category struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is an expense counterparty.
type Supplier struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentMethod is a way expenses get settled.
type PaymentMethod struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyInput creates or updates a company.
type CompanyInput struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	NINEA   string `json:"ninea"`
}

// ShipInput creates or updates a ship.
type ShipInput struct {
	CompanyID int64  `json:"company_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	IMO       string `json:"imo"`
	Flag      string `json:"flag"`
	Type      string `json:"type"`
}

// OperationInput creates or updates a catalogue operation.
type OperationInput struct {
	Code        string           `json:"code" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	PriceXOF    int64            `json:"price_xof" validate:"gte=0"`
	PriceEUR    *decimal.Decimal `json:"price_eur"`
}

// LookupInput creates or updates a code+name lookup row.
type LookupInput struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// SupplierInput creates or updates a supplier.
type SupplierInput struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}
