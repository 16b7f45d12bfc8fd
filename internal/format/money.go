// Package format renders engine amounts for display. The pricing engine only ever emits
// numbers in the base currency unit; callers pick a Formatter per currency and locale.
package format

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnknownCurrency is returned for ISO codes x/text does not recognise.
var ErrUnknownCurrency = errors.New("format: unknown currency")

// Func formats an amount in the base currency unit.
type Func func(amount float64) string

// Formatter formats amounts for one currency and locale.
type Formatter struct {
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
	scale   int
}

// NewFormatter builds a formatter for an ISO 4217 code and a BCP 47 locale. An invalid
// locale falls back to English.
func NewFormatter(code, locale string) (Formatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Formatter{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	scale, _ := currency.Standard.Rounding(unit)
	return Formatter{
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
		scale:   scale,
	}, nil
}

// Currency returns the ISO code of the formatter.
func (f Formatter) Currency() string { return f.unit.String() }

// Round rounds amount to the currency's standard minor-unit scale.
func (f Formatter) Round(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	pow := math.Pow10(f.scale)
	return math.Round(amount*pow) / pow
}

// Format renders amount with the locale's currency symbol and grouping.
func (f Formatter) Format(amount float64) string {
	if f.printer == nil {
		return fmt.Sprintf("%.2f", amount)
	}
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(f.Round(amount))))
}

// Func exposes Format as a callback.
func (f Formatter) Func() Func { return f.Format }
