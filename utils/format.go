package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	dateLayout        = "2006-01-02"
	displayDateLayout = "January 2, 2006"
	displayTimeLayout = "3:04 PM"
)

// timeLayouts are the accepted time-of-day inputs, tried in order.
var timeLayouts = []string{"15:04", "15:04:05"}

// Formatter renders prices, dates and times for display.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter for the given BCP 47 locale and currency
// symbol. An unparsable locale falls back to American English.
func NewFormatter(locale, currencySymbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  currencySymbol,
	}
}

// FormatPrice renders a price with the currency symbol, digit grouping and
// exactly two fraction digits, e.g. "$1,234.50".
func (f *Formatter) FormatPrice(price decimal.Decimal) string {
	sign := ""
	if price.IsNegative() {
		sign = "-"
		price = price.Neg()
	}
	amount := price.Round(2).InexactFloat64()
	return sign + f.symbol + f.printer.Sprint(number.Decimal(amount, number.Scale(2)))
}

// FormatDate renders "2025-03-01" as "March 1, 2025". Input that is not a
// calendar date is returned unchanged.
func (f *Formatter) FormatDate(date string) string {
	t, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}

// FormatTime renders "18:30" as "6:30 PM". Input that is not a time of day
// is returned unchanged.
func (f *Formatter) FormatTime(clock string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(clock)); err == nil {
			return t.Format(displayTimeLayout)
		}
	}
	return clock
}
