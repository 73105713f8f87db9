// Package money implements the monetary rules shared by the invoice and
// expense domains: line amounts, invoice totals, XOF/EUR conversion and the
// exchange rate derived from the operation catalogue.
//
// XOF is the primary currency and has no subunit, so XOF amounts are plain
// int64. EUR amounts carry two decimal places and are held as decimals.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency identifies a supported currency.
type Currency string

const (
	// XOF is the West African CFA franc, the primary currency.
	XOF Currency = "XOF"
	// EUR is the euro, the secondary display currency.
	EUR Currency = "EUR"
)

// CurrencyFromString maps a stored currency code to a Currency. Unknown
// values fall back to XOF, the primary currency.
func CurrencyFromString(s string) Currency {
	if Currency(s) == EUR {
		return EUR
	}
	return XOF
}

// DefaultExchangeRate is the XOF per EUR fallback used when no operation
// carries both prices. The CFA franc is pegged to the euro near this value.
var DefaultExchangeRate = decimal.NewFromInt(656)

// ValidationError reports an out-of-range numeric input, naming the field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("money: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// roundXOF rounds to a whole franc, half away from zero.
func roundXOF(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// roundEUR rounds to euro cents, half away from zero.
func roundEUR(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
