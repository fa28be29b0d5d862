package assistant

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates converts foreign currencies to MXN.
type Rates interface {
	// Rate returns the MXN value of one unit of currency.
	Rate(currency string) (decimal.Decimal, bool)
}

// StaticRates is a fixed table of MXN values keyed by ISO code.
type StaticRates map[string]decimal.Decimal

// NewStaticRates builds a table from configured float rates.
func NewStaticRates(rates map[string]float64) StaticRates {
	out := make(StaticRates, len(rates))
	for code, rate := range rates {
		out[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return out
}

// Rate implements Rates.
func (s StaticRates) Rate(currency string) (decimal.Decimal, bool) {
	rate, ok := s[strings.ToUpper(currency)]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, false
	}
	return rate, true
}
