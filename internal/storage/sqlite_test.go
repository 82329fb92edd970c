package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleTransaction(merchant, date string) model.DraftTransaction {
	return model.DraftTransaction{
		Merchant:    merchant,
		Date:        date,
		Time:        "14:32",
		Total:       25000,
		Currency:    "USD",
		Category:    "Supermarket",
		Subcategory: "Groceries",
		City:        "Austin",
		Country:     "US",
		ImageRef:    "img-" + merchant,
		Items: []model.LineItem{
			{Name: "Milk", Price: 500, Qty: 2},
			{Name: "Bread", Price: 350, Qty: 1},
		},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txn := sampleTransaction("Whole Foods Market", "2024-01-15")
	id, err := store.SaveTransaction(ctx, txn)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := store.GetTransactionByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, txn.Merchant, loaded.Merchant)
	assert.Equal(t, txn.Date, loaded.Date)
	assert.Equal(t, txn.Time, loaded.Time)
	assert.Equal(t, txn.Total, loaded.Total)
	assert.Equal(t, txn.Currency, loaded.Currency)
	assert.Equal(t, txn.Category, loaded.Category)
	assert.Equal(t, txn.Subcategory, loaded.Subcategory)
	assert.Equal(t, txn.City, loaded.City)
	assert.Equal(t, txn.Country, loaded.Country)
	assert.Equal(t, txn.ImageRef, loaded.ImageRef)
	assert.Equal(t, txn.Items, loaded.Items)
}

func TestLineItemsKeepReceiptOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txn := sampleTransaction("Corner Store", "2024-02-01")
	txn.Items = []model.LineItem{
		{Name: "Zucchini", Price: 300, Qty: 1},
		{Name: "Apples", Price: 450, Qty: 3},
		{Name: "Milk", Price: 500, Qty: 1},
	}

	id, err := store.SaveTransaction(ctx, txn)
	require.NoError(t, err)

	loaded, err := store.GetTransactionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, txn.Items, loaded.Items)
}

func TestSaveRejectsEmptyTransaction(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveTransaction(context.Background(), model.DraftTransaction{})
	assert.Error(t, err)
}

func TestSaveRejectsDuplicateContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txn := sampleTransaction("Corner Store", "2024-02-01")
	_, err := store.SaveTransaction(ctx, txn)
	require.NoError(t, err)

	// Identical content hashes identically; the unique constraint stops
	// a double save of the same receipt.
	_, err = store.SaveTransaction(ctx, txn)
	assert.Error(t, err)
}

// Two trips to the same store on the same day for the same total are
// distinct receipts. Duplicate detection must key on the full receipt
// content, never refuse the second one.
func TestSaveAcceptsSameDayRepeatPurchase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	morning := sampleTransaction("Corner Store", "2024-02-01")
	morning.Time = "08:10"
	_, err := store.SaveTransaction(ctx, morning)
	require.NoError(t, err)

	evening := morning
	evening.Time = "17:45"
	id, err := store.SaveTransaction(ctx, evening)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Same header, different basket counts as distinct too.
	basket := morning
	basket.Items = []model.LineItem{
		{Name: "Coffee", Price: 850, Qty: 1},
	}
	_, err = store.SaveTransaction(ctx, basket)
	assert.NoError(t, err)
}

func TestGetTransactionByIDNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTransactionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveTransaction(ctx, sampleTransaction("Corner Store", "2024-02-01"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteTransaction(ctx, id))
	_, err = store.GetTransactionByID(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTransaction(ctx, id), common.ErrNotFound)
}

func TestGetTransactionsFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []model.DraftTransaction{
		sampleTransaction("Whole Foods Market", "2024-01-10"),
		sampleTransaction("Corner Store", "2024-01-20"),
		sampleTransaction("Blue Bottle Coffee", "2024-02-05"),
	}
	for _, txn := range seed {
		_, err := store.SaveTransaction(ctx, txn)
		require.NoError(t, err)
	}

	date := func(value string) *time.Time {
		parsed, err := time.Parse(model.DateLayout, value)
		require.NoError(t, err)
		return &parsed
	}

	tests := []struct {
		filter        service.TransactionFilter
		name          string
		wantMerchants []string
	}{
		{
			name:          "no filter lists newest first",
			wantMerchants: []string{"Blue Bottle Coffee", "Corner Store", "Whole Foods Market"},
		},
		{
			name:          "start date",
			filter:        service.TransactionFilter{StartDate: date("2024-01-15")},
			wantMerchants: []string{"Blue Bottle Coffee", "Corner Store"},
		},
		{
			name:          "date range",
			filter:        service.TransactionFilter{StartDate: date("2024-01-01"), EndDate: date("2024-01-31")},
			wantMerchants: []string{"Corner Store", "Whole Foods Market"},
		},
		{
			name:          "merchant substring",
			filter:        service.TransactionFilter{Merchant: "Coffee"},
			wantMerchants: []string{"Blue Bottle Coffee"},
		},
		{
			name:          "limit",
			filter:        service.TransactionFilter{Limit: 2},
			wantMerchants: []string{"Blue Bottle Coffee", "Corner Store"},
		},
		{
			name:          "limit with offset",
			filter:        service.TransactionFilter{Limit: 2, Offset: 2},
			wantMerchants: []string{"Whole Foods Market"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)

			merchants := make([]string, len(txns))
			for i, txn := range txns {
				merchants[i] = txn.Merchant
			}
			assert.Equal(t, tt.wantMerchants, merchants)
		})
	}
}

func TestNewSQLiteStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
