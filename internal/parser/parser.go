// Package parser turns short chat messages such as "Costco 120.54" or
// "$57.74 supermarket" into expense candidates.
package parser

import (
	"regexp"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/shopspring/decimal"
)

// MaxAmount is the exclusive upper bound of a parseable amount.
var MaxAmount = decimal.NewFromInt(1_000_000)

// ParsedExpense is the result of parsing one message.
type ParsedExpense struct {
	Merchant string          `json:"merchant"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

var (
	// merchant first: "Costco 120.54 [CAD]"
	merchantFirst = regexp.MustCompile(`(?i)^([^\d$€£¥]+?)\s+([$€£¥]?\d[\d.,]*)\s*([a-z]{3})?$`)
	// amount first: "120.54 supermarket", "$57.74 supermarket", "57.74 CAD supermarket"
	amountFirst = regexp.MustCompile(`(?i)^([$€£¥]?\d[\d.,]*)\s+(?:([a-z]{3})\s+)?(\D.*)$`)
)

// knownCurrencies are the ISO codes accepted after or before an amount.
var knownCurrencies = map[string]bool{
	"MXN": true, "CAD": true, "USD": true, "EUR": true, "GBP": true, "JPY": true,
}

var currencySymbols = map[string]string{
	"$": "CAD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

// Parse extracts merchant, amount and currency from text. The second return
// is false when text is not an expense.
func Parse(text string) (*ParsedExpense, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	var merchant, amountText, currency string
	if m := merchantFirst.FindStringSubmatch(text); m != nil {
		merchant, amountText, currency = m[1], m[2], m[3]
		if currency != "" && !knownCurrencies[strings.ToUpper(currency)] {
			return nil, false
		}
	} else if m := amountFirst.FindStringSubmatch(text); m != nil {
		amountText, currency, merchant = m[1], m[2], m[3]
		if currency != "" && !knownCurrencies[strings.ToUpper(currency)] {
			merchant = currency + " " + merchant
			currency = ""
		}
	} else {
		return nil, false
	}

	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return nil, false
	}

	amount, ok := parseAmount(amountText)
	if !ok {
		return nil, false
	}

	if currency == "" {
		currency = symbolCurrency(amountText)
	}
	if currency == "" {
		currency = model.DefaultCurrency
	}

	return &ParsedExpense{
		Merchant: merchant,
		Amount:   amount,
		Currency: strings.ToUpper(currency),
	}, true
}

// parseAmount reads an amount whose decimal separator may be a comma.
// Amounts must lie in (0, MaxAmount).
func parseAmount(s string) (decimal.Decimal, bool) {
	for symbol := range currencySymbols {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if !amount.IsPositive() || amount.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, false
	}
	return amount, true
}

func symbolCurrency(amountText string) string {
	for symbol, currency := range currencySymbols {
		if strings.Contains(amountText, symbol) {
			return currency
		}
	}
	return ""
}
