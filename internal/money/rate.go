package money

import "github.com/shopspring/decimal"

// OperationPrice carries the two catalogue prices of a service operation.
// Operations missing either price do not contribute to the derived rate.
type OperationPrice struct {
	PriceXOF int64
	PriceEUR *decimal.Decimal
}

// DeriveRate averages priceXOF/priceEUR across operations carrying both a
// valid XOF and EUR price. It falls back to DefaultExchangeRate when no
// operation qualifies. Callers must recompute whenever catalogue prices
// change; the result is never cached in process.
func DeriveRate(prices []OperationPrice) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, p := range prices {
		if p.PriceXOF <= 0 || p.PriceEUR == nil || p.PriceEUR.Sign() <= 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(p.PriceXOF).Div(*p.PriceEUR))
		count++
	}
	if count == 0 {
		return DefaultExchangeRate
	}
	return sum.Div(decimal.NewFromInt(int64(count)))
}
