package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		merchant string
		amount   string
		currency string
		ok       bool
	}{
		{name: "merchant first", input: "Costco 120.54", merchant: "Costco", amount: "120.54", currency: "MXN", ok: true},
		{name: "merchant first with currency", input: "Costco 120.54 cad", merchant: "Costco", amount: "120.54", currency: "CAD", ok: true},
		{name: "multi word merchant", input: "Home Depot 89", merchant: "Home Depot", amount: "89", currency: "MXN", ok: true},
		{name: "dollar sign", input: "$57.74 supermarket", merchant: "supermarket", amount: "57.74", currency: "CAD", ok: true},
		{name: "euro sign", input: "Cafe €4,50", merchant: "Cafe", amount: "4.5", currency: "EUR", ok: true},
		{name: "amount first with currency", input: "57.74 CAD supermarket", merchant: "supermarket", amount: "57.74", currency: "CAD", ok: true},
		{name: "amount first", input: "120.54 walmart", merchant: "walmart", amount: "120.54", currency: "MXN", ok: true},
		{name: "comma decimal", input: "Oxxo 35,50", merchant: "Oxxo", amount: "35.5", currency: "MXN", ok: true},
		{name: "three letter word is not a currency", input: "50 bar snacks", merchant: "bar snacks", amount: "50", currency: "MXN", ok: true},
		{name: "unknown trailing code", input: "Costco 120 abc", ok: false},
		{name: "zero amount", input: "Costco 0", ok: false},
		{name: "too large", input: "Costco 1000000", ok: false},
		{name: "just below the bound", input: "Car 999999.99", merchant: "Car", amount: "999999.99", currency: "MXN", ok: true},
		{name: "amount only", input: "120.54", ok: false},
		{name: "merchant only", input: "Costco", ok: false},
		{name: "empty", input: "   ", ok: false},
		{name: "malformed amount", input: "Costco 1.2.3", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.merchant, got.Merchant)
			assert.Equal(t, tt.amount, got.Amount.String())
			assert.Equal(t, tt.currency, got.Currency)
		})
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "how much did we spend this week", want: true},
		{input: "Show me the breakdown", want: true},
		{input: "groceries total july", want: true},
		{input: "july 2025", want: true},
		{input: "Costco 2025", want: true},
		{input: "cuanto gastamos", want: true},
		{input: "Costco?", want: true},
		{input: "Costco 120.54", want: false},
		{input: "$57.74 supermarket", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeQuestion(tt.input))
		})
	}
}

func TestParseMessage(t *testing.T) {
	_, ok := ParseMessage("what did I spend 50 on")
	assert.False(t, ok)

	got, ok := ParseMessage("Uber 85")
	require.True(t, ok)
	assert.Equal(t, "Uber", got.Merchant)
}
