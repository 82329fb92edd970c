package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/model"
)

func TestParseDraft(t *testing.T) {
	raw := `{
		"merchant": "  Whole Foods Market ",
		"date": "2024-01-15",
		"time": "14:32",
		"currency": "usd",
		"category": "Supermarket",
		"subcategory": "Groceries",
		"city": "Austin",
		"country": "US",
		"total": 25000,
		"items": [
			{"name": "Milk", "price": 500, "qty": 2},
			{"name": "Bread", "price": 350, "qty": 0}
		]
	}`

	draft, err := ParseDraft(raw)
	require.NoError(t, err)

	assert.Equal(t, "Whole Foods Market", draft.Merchant)
	assert.Equal(t, "2024-01-15", draft.Date)
	assert.Equal(t, "14:32", draft.Time)
	assert.Equal(t, "USD", draft.Currency)
	assert.Equal(t, "Supermarket", draft.Category)
	assert.Equal(t, int64(25000), draft.Total)

	require.Len(t, draft.Items, 2)
	assert.Equal(t, model.LineItem{Name: "Milk", Price: 500, Qty: 2}, draft.Items[0])
	// A zero quantity is nonsense on a receipt; it is clamped to 1.
	assert.Equal(t, 1, draft.Items[1].Qty)
}

func TestParseDraftToleratesWrapping(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "json code fence",
			raw:  "```json\n{\"merchant\": \"Corner Store\", \"total\": 100}\n```",
		},
		{
			name: "bare code fence",
			raw:  "```\n{\"merchant\": \"Corner Store\", \"total\": 100}\n```",
		},
		{
			name: "leading prose",
			raw:  "Here is the extracted receipt:\n{\"merchant\": \"Corner Store\", \"total\": 100}",
		},
		{
			name: "trailing prose",
			raw:  "{\"merchant\": \"Corner Store\", \"total\": 100}\nLet me know if you need anything else.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Corner Store", draft.Merchant)
			assert.Equal(t, int64(100), draft.Total)
		})
	}
}

func TestParseDraftErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty response", raw: ""},
		{name: "prose only", raw: "I could not read this receipt."},
		{name: "unterminated object", raw: "{\"merchant\": \"Corner"},
		{name: "malformed json", raw: "{\"merchant\": }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDraft(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseDraftNormalizesDates(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{name: "canonical layout kept", date: "2024-01-15", want: "2024-01-15"},
		{name: "slash layout", date: "2024/01/15", want: "2024-01-15"},
		{name: "us layout", date: "01/15/2024", want: "2024-01-15"},
		{name: "european dashes", date: "15-01-2024", want: "2024-01-15"},
		{name: "european dots", date: "15.01.2024", want: "2024-01-15"},
		// Unparseable dates come back empty; a guessed date would be
		// worse than a flagged one.
		{name: "prose date dropped", date: "January 15th", want: ""},
		{name: "empty date stays empty", date: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(`{"date": "` + tt.date + `", "merchant": "X", "total": 1}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.Date)
		})
	}
}

func TestParseDraftDefaultsCategory(t *testing.T) {
	draft, err := ParseDraft(`{"merchant": "X", "total": 1, "category": "  "}`)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, draft.Category)
}

func TestParseDraftSkipsBlankItems(t *testing.T) {
	draft, err := ParseDraft(`{
		"merchant": "X",
		"total": 1,
		"items": [
			{"name": "   ", "price": 100, "qty": 1},
			{"name": "Coffee", "price": 250, "qty": 1}
		]
	}`)
	require.NoError(t, err)

	require.Len(t, draft.Items, 1)
	assert.Equal(t, "Coffee", draft.Items[0].Name)
}
