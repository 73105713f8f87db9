package money

import "github.com/shopspring/decimal"

// LineInput is one billable line before derivation.
type LineInput struct {
	Quantity     decimal.Decimal
	UnitPriceXOF int64
	UnitPriceEUR *decimal.Decimal
}

// LineAmount is the derived amount of a single line.
type LineAmount struct {
	AmountXOF int64
	AmountEUR *decimal.Decimal
}

// Totals aggregates the monetary fields of an invoice.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// ComputeLineAmount derives the XOF amount (and EUR amount when a unit EUR
// price is present) of a line. The source line is never mutated.
func ComputeLineAmount(in LineInput) (LineAmount, error) {
	if in.Quantity.Sign() <= 0 {
		return LineAmount{}, invalid("quantity", "must be greater than zero")
	}
	if in.UnitPriceXOF < 0 {
		return LineAmount{}, invalid("unit_price_xof", "must not be negative")
	}
	out := LineAmount{
		AmountXOF: roundXOF(in.Quantity.Mul(decimal.NewFromInt(in.UnitPriceXOF))),
	}
	if in.UnitPriceEUR != nil {
		if in.UnitPriceEUR.Sign() < 0 {
			return LineAmount{}, invalid("unit_price_eur", "must not be negative")
		}
		eur := roundEUR(in.Quantity.Mul(*in.UnitPriceEUR))
		out.AmountEUR = &eur
	}
	return out, nil
}

// ComputeInvoiceTotals sums line amounts and applies the tax rate (percent,
// in [0, 100]). total = subtotal + round(subtotal * rate / 100).
func ComputeInvoiceTotals(lines []LineInput, taxRatePercent decimal.Decimal) (Totals, error) {
	if taxRatePercent.Sign() < 0 || taxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return Totals{}, invalid("tax_rate", "must be between 0 and 100")
	}
	var subtotal int64
	for _, line := range lines {
		amount, err := ComputeLineAmount(line)
		if err != nil {
			return Totals{}, err
		}
		subtotal += amount.AmountXOF
	}
	tax := roundXOF(decimal.NewFromInt(subtotal).Mul(taxRatePercent).Div(decimal.NewFromInt(100)))
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}, nil
}

// Convert converts an amount between XOF and EUR at the given rate (XOF per
// EUR). Converting a currency to itself is the identity.
func Convert(amount decimal.Decimal, from, to Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, invalid("amount", "must not be negative")
	}
	if from == to {
		return amount, nil
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, invalid("exchange_rate", "must be greater than zero")
	}
	switch {
	case from == XOF && to == EUR:
		return roundEUR(amount.Div(rate)), nil
	case from == EUR && to == XOF:
		return amount.Mul(rate).Round(0), nil
	default:
		return decimal.Zero, invalid("currency", "unsupported conversion "+string(from)+" to "+string(to))
	}
}
