// Package money formats decimal amounts for display. Amounts are rounded
// here and nowhere else; formatted strings are never parsed back.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayPlaces is the number of fraction digits shown to users.
const DisplayPlaces = 2

// Formatter renders amounts with a currency symbol and locale grouping.
type Formatter struct {
	symbol  string
	printer *message.Printer
	decSep  string
}

// NewFormatter builds a Formatter for the given BCP 47 locale. Unknown
// locales fall back to English.
func NewFormatter(symbol, locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	sep := "."
	if s := p.Sprintf("%.1f", 1.5); len(s) == 3 {
		sep = s[1:2]
	}

	return &Formatter{symbol: symbol, printer: p, decSep: sep}
}

// Round applies display rounding (half away from zero).
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(DisplayPlaces)
}

// Format renders amount as e.g. "₡3,100.00" or "-₡635.00".
func (f *Formatter) Format(amount decimal.Decimal) string {
	rounded := Round(amount)
	neg := rounded.IsNegative()
	if neg {
		rounded = rounded.Neg()
	}

	_, frac, _ := strings.Cut(rounded.StringFixed(DisplayPlaces), ".")
	grouped := f.printer.Sprintf("%d", rounded.IntPart())

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(f.symbol)
	b.WriteString(grouped)
	b.WriteString(f.decSep)
	b.WriteString(frac)
	return b.String()
}
