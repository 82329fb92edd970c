package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draft() DraftTransaction {
	return DraftTransaction{
		Merchant: "Corner Store",
		Date:     "2024-01-15",
		Time:     "08:10",
		Total:    25000,
		Currency: "USD",
		Category: "Supermarket",
		Items: []LineItem{
			{Name: "Milk", Price: 500, Qty: 2},
			{Name: "Bread", Price: 350, Qty: 1},
		},
	}
}

func TestHashIsStable(t *testing.T) {
	a := draft()
	b := draft()
	assert.Equal(t, a.Hash(), b.Hash())
}

// Two distinct receipts from the same merchant on the same day with the
// same total must never collide: the fingerprint covers the purchase
// time and the line items, not just the header fields.
func TestHashDistinguishesDistinctReceipts(t *testing.T) {
	tests := []struct {
		mutate func(*DraftTransaction)
		name   string
	}{
		{
			name:   "different purchase time",
			mutate: func(tx *DraftTransaction) { tx.Time = "17:45" },
		},
		{
			name:   "different item name",
			mutate: func(tx *DraftTransaction) { tx.Items[0].Name = "Oat Milk" },
		},
		{
			name:   "different item price split",
			mutate: func(tx *DraftTransaction) { tx.Items[0].Price, tx.Items[1].Price = 350, 500 },
		},
		{
			name:   "different quantity",
			mutate: func(tx *DraftTransaction) { tx.Items[0].Qty = 3 },
		},
	}

	base := draft()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := draft()
			tt.mutate(&other)
			assert.NotEqual(t, base.Hash(), other.Hash())
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		want     string
		minor    int64
	}{
		{name: "whole and cents", minor: 25000, currency: "USD", want: "250.00 USD"},
		{name: "cents only", minor: 5, currency: "EUR", want: "0.05 EUR"},
		{name: "zero", minor: 0, currency: "USD", want: "0.00 USD"},
		{name: "negative cents", minor: -5, currency: "USD", want: "-0.05 USD"},
		{name: "negative amount", minor: -1234, currency: "USD", want: "-12.34 USD"},
		{name: "missing currency", minor: 100, currency: "", want: "1.00 ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.minor, tt.currency))
		})
	}
}
