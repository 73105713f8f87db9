// Package expense implements supplier expense tracking: capture, the
// approval status machine and payment recording.
package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escale-marine/escale/internal/money"
)

// Status enumerates expense lifecycle states.
type Status string

const (
	StatusEnAttente Status = "EN_ATTENTE"
	StatusApprouvee Status = "APPROUVEE"
	StatusRejetee   Status = "REJETEE"
	StatusPayee     Status = "PAYEE"
)

// Valid reports whether s is a known expense status.
func (s Status) Valid() bool {
	switch s {
	case StatusEnAttente, StatusApprouvee, StatusRejetee, StatusPayee:
		return true
	}
	return false
}

// transitions defines the legal expense state machine. Every state can be
// sent back to EN_ATTENTE for administrative correction, including PAYEE.
var transitions = map[Status][]Status{
	StatusEnAttente: {StatusApprouvee, StatusRejetee},
	StatusApprouvee: {StatusPayee, StatusEnAttente},
	StatusRejetee:   {StatusEnAttente},
	StatusPayee:     {StatusEnAttente},
}

// CanTransition reports whether an expense may move between states in one
// hop. Self-transitions are not permitted.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Common expense errors.
var (
	ErrNotFound          = errors.New("expense not found")
	ErrIllegalTransition = errors.New("invalid expense status transition")
	ErrNotEditable       = errors.New("expense may only change while pending")
)

// TransitionError reports a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("expense: transition %s -> %s not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// Expense is a company expense. Expenses are never hard-deleted.
type Expense struct {
	ID              int64            `json:"id"`
	Numero          string           `json:"numero"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	CategoryID      int64            `json:"category_id"`
	SupplierID      *int64           `json:"supplier_id,omitempty"`
	PaymentMethodID int64            `json:"payment_method_id"`
	ExpenseDate     time.Time        `json:"expense_date"`
	AmountXOF       int64            `json:"amount_xof"`
	AmountEUR       *decimal.Decimal `json:"amount_eur,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
	Currency        money.Currency   `json:"currency"`
	Status          Status           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CreateExpenseInput creates a new pending expense.
type CreateExpenseInput struct {
	Numero          string           `json:"numero"`
	Title           string           `json:"title" validate:"required"`
	Description     string           `json:"description"`
	CategoryID      int64            `json:"category_id" validate:"required"`
	SupplierID      *int64           `json:"supplier_id"`
	PaymentMethodID int64            `json:"payment_method_id" validate:"required"`
	ExpenseDate     time.Time        `json:"expense_date" validate:"required"`
	AmountXOF       int64            `json:"amount_xof" validate:"required"`
	AmountEUR       *decimal.Decimal `json:"amount_eur"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate"`
}

// UpdateExpenseInput replaces the mutable fields of a pending expense.
type UpdateExpenseInput struct {
	Title           string           `json:"title" validate:"required"`
	Description     string           `json:"description"`
	CategoryID      int64            `json:"category_id" validate:"required"`
	SupplierID      *int64           `json:"supplier_id"`
	PaymentMethodID int64            `json:"payment_method_id" validate:"required"`
	ExpenseDate     time.Time        `json:"expense_date" validate:"required"`
	AmountXOF       int64            `json:"amount_xof" validate:"required"`
	AmountEUR       *decimal.Decimal `json:"amount_eur"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate"`
}

// ChangeStatusInput requests a guarded status change.
type ChangeStatusInput struct {
	Status  Status `json:"status" validate:"required"`
	ActorID int64  `json:"actor_id"`
	Note    string `json:"note"`
}
