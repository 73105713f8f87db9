// Package invoice implements the customer invoice lifecycle: creation from
// operation line items, totals derivation, the status machine and overdue
// evaluation.
package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates invoice lifecycle states.
type Status string

const (
	StatusBrouillon Status = "BROUILLON"
	StatusEmise     Status = "EMISE"
	StatusPayee     Status = "PAYEE"
	StatusAnnulee   Status = "ANNULEE"
	StatusEnRetard  Status = "EN_RETARD"
)

// Valid reports whether s is a known invoice status.
func (s Status) Valid() bool {
	switch s {
	case StatusBrouillon, StatusEmise, StatusPayee, StatusAnnulee, StatusEnRetard:
		return true
	}
	return false
}

// transitions defines the legal invoice state machine. PAYEE is terminal;
// ANNULEE may be reactivated back to BROUILLON.
var transitions = map[Status][]Status{
	StatusBrouillon: {StatusEmise, StatusAnnulee},
	StatusEmise:     {StatusPayee, StatusAnnulee, StatusEnRetard},
	StatusPayee:     {},
	StatusAnnulee:   {StatusBrouillon},
	StatusEnRetard:  {StatusPayee, StatusAnnulee},
}

// CanTransition reports whether an invoice may move between states in one
// hop. Self-transitions are not permitted.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Common invoice errors.
var (
	ErrNotFound          = errors.New("invoice not found")
	ErrIllegalTransition = errors.New("invalid invoice status transition")
	ErrNotEditable       = errors.New("invoice lines may only change in draft")
	ErrEmptyInvoice      = errors.New("invoice requires at least one line")
)

// TransitionError reports a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invoice: transition %s -> %s not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// Invoice is a customer invoice. Invoices are never hard-deleted.
type Invoice struct {
	ID        int64           `json:"id"`
	Numero    string          `json:"numero"`
	CompanyID int64           `json:"company_id"`
	ShipID    *int64          `json:"ship_id,omitempty"`
	IssueDate time.Time       `json:"issue_date"`
	DueDate   time.Time       `json:"due_date"`
	Lines     []Line          `json:"lines"`
	Subtotal  int64           `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount int64           `json:"tax_amount"`
	Total     int64           `json:"total"`
	Status    Status          `json:"status"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Line is a billable prestation on an invoice. Amounts are derived, never
// stored from client input.
type Line struct {
	ID           int64            `json:"id"`
	InvoiceID    int64            `json:"invoice_id"`
	OperationID  int64            `json:"operation_id"`
	Description  string           `json:"description"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPriceXOF int64            `json:"unit_price_xof"`
	UnitPriceEUR *decimal.Decimal `json:"unit_price_eur,omitempty"`
	AmountXOF    int64            `json:"amount_xof"`
	AmountEUR    *decimal.Decimal `json:"amount_eur,omitempty"`
}

// CreateInvoiceInput creates a new draft invoice.
type CreateInvoiceInput struct {
	Numero    string            `json:"numero"`
	CompanyID int64             `json:"company_id" validate:"required"`
	ShipID    *int64            `json:"ship_id"`
	IssueDate time.Time         `json:"issue_date" validate:"required"`
	DueDate   time.Time         `json:"due_date" validate:"required"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	Lines     []CreateLineInput `json:"lines" validate:"required,min=1,dive"`
}

// CreateLineInput is one requested line item.
type CreateLineInput struct {
	OperationID  int64            `json:"operation_id" validate:"required"`
	Description  string           `json:"description"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPriceXOF int64            `json:"unit_price_xof"`
	UnitPriceEUR *decimal.Decimal `json:"unit_price_eur"`
}

// UpdateInvoiceInput replaces the mutable fields of a draft invoice.
type UpdateInvoiceInput struct {
	ShipID    *int64            `json:"ship_id"`
	IssueDate time.Time         `json:"issue_date" validate:"required"`
	DueDate   time.Time         `json:"due_date" validate:"required"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	Lines     []CreateLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ChangeStatusInput requests a guarded status change.
type ChangeStatusInput struct {
	Status  Status `json:"status" validate:"required"`
	ActorID int64  `json:"actor_id"`
	Note    string `json:"note"`
}
