// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// CategoryOther is the generic fallback category assigned when the
// analysis service cannot determine a more specific one.
const CategoryOther = "Other"

// DateLayout is the calendar-date format used on DraftTransaction.Date.
const DateLayout = "2006-01-02"

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	Name  string
	Price int64 // minor currency units
	Qty   int
}

// DraftTransaction is the structured receipt data extracted by the
// analysis service or produced by user edits. It is immutable once
// persisted.
type DraftTransaction struct {
	Merchant    string
	Date        string // calendar date, DateLayout
	Time        string // optional, HH:MM
	Currency    string
	Category    string
	Subcategory string
	City        string
	Country     string
	ImageRef    string // optional thumbnail reference, attached for the editor
	Items       []LineItem
	Total       int64 // minor currency units
}

// Hash creates a stable fingerprint for duplicate detection. It covers
// the purchase time and every line item, so two distinct receipts from
// the same merchant on the same day with the same total still hash
// differently.
func (t *DraftTransaction) Hash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:%d:%s:%s",
		t.Date,
		t.Time,
		t.Total,
		strings.TrimSpace(t.Merchant),
		t.Currency)
	for _, item := range t.Items {
		fmt.Fprintf(&b, "|%s:%d:%d", item.Name, item.Price, item.Qty)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}

// ParseDate returns the transaction date as a time.Time, or an error
// when the date field does not hold a valid calendar date.
func (t *DraftTransaction) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, t.Date)
}

// FormatAmount renders a minor-unit amount as a decimal string with its
// currency code. Negative amounts carry a single leading sign.
func FormatAmount(minor int64, currency string) string {
	if currency == "" {
		currency = "?"
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
