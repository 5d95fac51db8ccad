package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders prices for display in a fixed currency and locale.
type Formatter struct {
	unit      currency.Unit
	printer   *message.Printer
	separator string
}

// NewFormatter builds a Formatter for an ISO 4217 code and a BCP 47 locale tag.
func NewFormatter(isoCode, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(isoCode)
	if err != nil {
		return nil, fmt.Errorf("pricing: currency %q: %w", isoCode, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("pricing: locale %q: %w", locale, err)
	}
	printer := message.NewPrinter(tag)
	return &Formatter{unit: unit, printer: printer, separator: decimalSeparator(printer)}, nil
}

// Format rounds amount with the pricing rule and renders it as "<ISO> <grouped amount>".
// The integer part is grouped by the locale; the fraction keeps the exact rounded digits.
func (f *Formatter) Format(amount decimal.Decimal) string {
	display := DisplayPrice(amount)
	fixed := display.StringFixed(Scale)
	if f == nil {
		return fixed
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	intPart := display.Truncate(0).BigInt()
	if intPart.IsInt64() {
		whole = f.printer.Sprint(number.Decimal(intPart.Int64()))
	}
	if frac != "" {
		whole += f.separator + frac
	}
	return f.unit.String() + " " + whole
}

func decimalSeparator(p *message.Printer) string {
	sample := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	sep := strings.TrimSuffix(strings.TrimPrefix(sample, "1"), "5")
	if sep == "" {
		return "."
	}
	return sep
}
