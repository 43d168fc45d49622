package pdf

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Separador de miles "." y decimal "," (es-CO).
var printer = message.NewPrinter(language.Spanish)

// formatMoney "$ 1.250.000" para COP (sin decimales) y "$ 1.250,50" para otras monedas.
func formatMoney(d decimal.Decimal, currency string) string {
	scale := 2
	if currency == "" || currency == "COP" {
		scale = 0
	}
	f, _ := d.Round(int32(scale)).Float64()
	return printer.Sprintf("$ %v", number.Decimal(f, number.Scale(scale)))
}
