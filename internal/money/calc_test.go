package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func eur(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeLineAmount(t *testing.T) {
	amount, err := ComputeLineAmount(LineInput{
		Quantity:     decimal.NewFromInt(2),
		UnitPriceXOF: 75000,
		UnitPriceEUR: eur("114.34"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(150000), amount.AmountXOF)
	require.NotNil(t, amount.AmountEUR)
	require.True(t, amount.AmountEUR.Equal(decimal.RequireFromString("228.68")))
}

func TestComputeLineAmountWithoutEURPrice(t *testing.T) {
	amount, err := ComputeLineAmount(LineInput{
		Quantity:     decimal.RequireFromString("1.5"),
		UnitPriceXOF: 10001,
	})
	require.NoError(t, err)
	require.Equal(t, int64(15002), amount.AmountXOF)
	require.Nil(t, amount.AmountEUR)
}

func TestComputeLineAmountRejectsNonPositiveQuantity(t *testing.T) {
	_, err := ComputeLineAmount(LineInput{Quantity: decimal.Zero, UnitPriceXOF: 100})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "quantity", verr.Field)
}

func TestComputeInvoiceTotals(t *testing.T) {
	lines := []LineInput{
		{Quantity: decimal.NewFromInt(2), UnitPriceXOF: 75000},
	}
	totals, err := ComputeInvoiceTotals(lines, decimal.NewFromInt(18))
	require.NoError(t, err)
	require.Equal(t, int64(150000), totals.Subtotal)
	require.Equal(t, int64(27000), totals.Tax)
	require.Equal(t, int64(177000), totals.Total)
}

func TestComputeInvoiceTotalsIsLinear(t *testing.T) {
	lines := []LineInput{
		{Quantity: decimal.NewFromInt(3), UnitPriceXOF: 40000},
		{Quantity: decimal.NewFromInt(1), UnitPriceXOF: 25000},
	}
	doubled := []LineInput{
		{Quantity: decimal.NewFromInt(6), UnitPriceXOF: 40000},
		{Quantity: decimal.NewFromInt(2), UnitPriceXOF: 25000},
	}
	rate := decimal.NewFromInt(18)

	base, err := ComputeInvoiceTotals(lines, rate)
	require.NoError(t, err)
	twice, err := ComputeInvoiceTotals(doubled, rate)
	require.NoError(t, err)

	require.Equal(t, base.Subtotal*2, twice.Subtotal)
	require.Equal(t, base.Total*2, twice.Total)
}

func TestComputeInvoiceTotalsRejectsTaxRateOutOfRange(t *testing.T) {
	for _, rate := range []string{"-1", "100.5"} {
		_, err := ComputeInvoiceTotals(nil, decimal.RequireFromString(rate))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "tax_rate", verr.Field)
	}
}

func TestComputeInvoiceTotalsZeroRate(t *testing.T) {
	totals, err := ComputeInvoiceTotals([]LineInput{
		{Quantity: decimal.NewFromInt(1), UnitPriceXOF: 99999},
	}, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, int64(99999), totals.Subtotal)
	require.Equal(t, int64(0), totals.Tax)
	require.Equal(t, int64(99999), totals.Total)
}

func TestConvertIdentity(t *testing.T) {
	amount := decimal.NewFromInt(5000)
	got, err := Convert(amount, XOF, XOF, decimal.Zero)
	require.NoError(t, err)
	require.True(t, got.Equal(amount))
}

func TestConvertRoundTrip(t *testing.T) {
	rate := decimal.RequireFromString("655.957")
	start := decimal.NewFromInt(150000)

	asEUR, err := Convert(start, XOF, EUR, rate)
	require.NoError(t, err)
	back, err := Convert(asEUR, EUR, XOF, rate)
	require.NoError(t, err)

	// Rounding to euro cents loses at most half a cent, i.e. rate/200 francs.
	tolerance := rate.Div(decimal.NewFromInt(200)).Ceil()
	diff := back.Sub(start).Abs()
	require.True(t, diff.LessThanOrEqual(tolerance), "round trip drift %s", diff)
}

func TestConvertRejectsNonPositiveRate(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(100), XOF, EUR, decimal.Zero)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "exchange_rate", verr.Field)
}

func TestConvertRejectsNegativeAmount(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(-1), XOF, EUR, decimal.NewFromInt(656))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "amount", verr.Field)
}

func TestDeriveRateDefault(t *testing.T) {
	require.True(t, DeriveRate(nil).Equal(decimal.NewFromInt(656)))
	require.True(t, DeriveRate([]OperationPrice{{PriceXOF: 1000}}).Equal(decimal.NewFromInt(656)))
}

func TestDeriveRateAverages(t *testing.T) {
	prices := []OperationPrice{
		{PriceXOF: 65600, PriceEUR: eur("100")},
		{PriceXOF: 131200, PriceEUR: eur("200")},
		{PriceXOF: 5000, PriceEUR: nil},
	}
	require.True(t, DeriveRate(prices).Equal(decimal.NewFromInt(656)))
}
