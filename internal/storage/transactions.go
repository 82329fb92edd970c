package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

// SaveTransaction inserts a transaction and its line items atomically
// and returns the generated id. Each call is independent: failures here
// never affect other committed transactions.
func (s *SQLiteStore) SaveTransaction(ctx context.Context, txn model.DraftTransaction) (string, error) {
	if strings.TrimSpace(txn.Merchant) == "" && txn.Total <= 0 {
		return "", fmt.Errorf("refusing to persist an empty transaction")
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, hash, merchant, date, time, total, currency, category, subcategory, city, country, image_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, txn.Hash(), txn.Merchant, txn.Date, txn.Time, txn.Total, txn.Currency,
		txn.Category, txn.Subcategory, txn.City, txn.Country, txn.ImageRef)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i, item := range txn.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, position, name, price, qty)
			VALUES (?, ?, ?, ?, ?)`,
			id, i, item.Name, item.Price, item.Qty)
		if err != nil {
			return "", fmt.Errorf("failed to insert line item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// GetTransactionByID loads one committed transaction with its items.
func (s *SQLiteStore) GetTransactionByID(ctx context.Context, id string) (*model.DraftTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT merchant, date, time, total, currency, category, subcategory, city, country, image_ref
		FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}

	items, err := s.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	txn.Items = items

	return txn, nil
}

// GetTransactions lists committed transactions matching the filter,
// newest first.
func (s *SQLiteStore) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.DraftTransaction, error) {
	query := `
		SELECT id, merchant, date, time, total, currency, category, subcategory, city, country, image_ref
		FROM transactions WHERE 1=1`
	args := make([]any, 0, 4)

	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.Merchant != "" {
		query += ` AND merchant LIKE ?`
		args = append(args, "%"+filter.Merchant+"%")
	}

	query += ` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.DraftTransaction
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		var txn model.DraftTransaction
		var timeStr, subcategory, city, country, imageRef sql.NullString
		if err := rows.Scan(&id, &txn.Merchant, &txn.Date, &timeStr, &txn.Total, &txn.Currency,
			&txn.Category, &subcategory, &city, &country, &imageRef); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Time = timeStr.String
		txn.Subcategory = subcategory.String
		txn.City = city.String
		txn.Country = country.String
		txn.ImageRef = imageRef.String
		txns = append(txns, txn)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	for i, id := range ids {
		items, err := s.loadItems(ctx, id)
		if err != nil {
			return nil, err
		}
		txns[i].Items = items
	}

	return txns, nil
}

// DeleteTransaction removes a committed transaction and its items.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete line items for %s: %w", id, err)
	}

	return nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, txnID string) ([]model.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, price, qty FROM transaction_items
		WHERE transaction_id = ? ORDER BY position`, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.LineItem
	for rows.Next() {
		var item model.LineItem
		if err := rows.Scan(&item.Name, &item.Price, &item.Qty); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanTransaction(row *sql.Row) (*model.DraftTransaction, error) {
	var txn model.DraftTransaction
	var timeStr, subcategory, city, country, imageRef sql.NullString
	if err := row.Scan(&txn.Merchant, &txn.Date, &timeStr, &txn.Total, &txn.Currency,
		&txn.Category, &subcategory, &city, &country, &imageRef); err != nil {
		return nil, err
	}
	txn.Time = timeStr.String
	txn.Subcategory = subcategory.String
	txn.City = city.String
	txn.Country = country.String
	txn.ImageRef = imageRef.String
	return &txn, nil
}
