package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.French)

// FormatXOF renders a XOF amount with French digit grouping, e.g. "1 500 000 F CFA".
func FormatXOF(amount int64) string {
	return printer.Sprintf("%d F CFA", amount)
}

// FormatEUR renders a EUR amount at two decimal places, e.g. "2 286,74 €".
func FormatEUR(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f €", f)
}
