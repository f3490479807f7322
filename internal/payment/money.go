package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultNonDecimalCurrencies lists ISO 4217 codes with no minor unit. Amounts
// in these currencies are sent as whole numbers.
var DefaultNonDecimalCurrencies = []string{
	"BIF", "CLP", "DJF", "GNF", "ISK", "JPY", "KMF", "KRW", "PYG",
	"RWF", "UGX", "UYI", "VND", "VUV", "XAF", "XOF", "XPF",
}

type CurrencySet map[string]struct{}

func NewCurrencySet(codes ...string) CurrencySet {
	s := make(CurrencySet, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

func (s CurrencySet) Contains(code string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// AmountFormatter renders amounts for the wire.
type AmountFormatter struct {
	nonDecimal CurrencySet
}

func NewAmountFormatter(nonDecimal CurrencySet) AmountFormatter {
	if nonDecimal == nil {
		nonDecimal = NewCurrencySet(DefaultNonDecimalCurrencies...)
	}
	return AmountFormatter{nonDecimal: nonDecimal}
}

// Format truncates to the integer part for non-decimal currencies and rounds
// to two places for everything else, including an empty currency.
func (f AmountFormatter) Format(amount decimal.Decimal, currency string) string {
	if f.nonDecimal.Contains(currency) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixed(2)
}

// ParseAmount reads a decimal amount such as "100" or "19.99".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// AmountPtr is a convenience for optional amount fields.
func AmountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
