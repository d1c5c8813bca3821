package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const transactionColumns = `id, business_id, customer_id, transaction_type, amount, description,
	transaction_date, payment_mode, created_at, updated_at`

// transactionWhere builds the WHERE clause for a filter. BusinessID is
// always applied; the other fields only when set.
func transactionWhere(f storage.TransactionFilter) (string, []any) {
	conds := []string{"business_id = ?"}
	args := []any{f.BusinessID}
	if f.CustomerID != 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.TransactionType != "" {
		conds = append(conds, "transaction_type = ?")
		args = append(args, f.TransactionType)
	}
	if f.FromDate != "" {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, f.ToDate)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CreateTransaction inserts a ledger entry.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	id, err := insertID(ctx, s.db, `
		INSERT INTO transactions (business_id, customer_id, transaction_type, amount, description,
			transaction_date, payment_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.BusinessID, t.CustomerID, t.TransactionType, t.Amount, t.Description,
		t.TransactionDate, t.PaymentMode, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.ID = id
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t := &models.Transaction{}
	if err := get(ctx, s.db, t, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions lists matching transactions, latest date first.
func (s *Store) ListTransactions(ctx context.Context, filter storage.TransactionFilter, page storage.Page) ([]models.Transaction, int, error) {
	where, args := transactionWhere(filter)
	query := "SELECT " + transactionColumns + " FROM transactions" + where +
		" ORDER BY transaction_date DESC, id DESC"

	var rows []models.Transaction
	total, err := selectPage(ctx, s.db, &rows, query, page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return rows, total, nil
}

// TransactionTotals sums income and expense over matching transactions.
func (s *Store) TransactionTotals(ctx context.Context, filter storage.TransactionFilter) (models.TransactionTotals, error) {
	where, args := transactionWhere(filter)
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN amount ELSE 0 END), 0) AS total_income,
			COALESCE(SUM(CASE WHEN transaction_type = 'expense' THEN amount ELSE 0 END), 0) AS total_expense
		FROM transactions` + where

	var totals models.TransactionTotals
	if err := get(ctx, s.db, &totals, query, args...); err != nil {
		return totals, fmt.Errorf("failed to sum transactions: %w", err)
	}
	totals.TotalIncome = totals.TotalIncome.Round(moneyPlaces)
	totals.TotalExpense = totals.TotalExpense.Round(moneyPlaces)
	totals.NetBalance = totals.TotalIncome.Sub(totals.TotalExpense)
	return totals, nil
}

// UpdateTransaction writes the editable transaction fields.
func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = models.Now()
	err := execAffected(ctx, s.db, `
		UPDATE transactions SET customer_id = ?, transaction_type = ?, amount = ?, description = ?,
			transaction_date = ?, payment_mode = ?, updated_at = ?
		WHERE id = ?`,
		t.CustomerID, t.TransactionType, t.Amount, t.Description,
		t.TransactionDate, t.PaymentMode, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	if err := execAffected(ctx, s.db, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}
