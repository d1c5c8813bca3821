package sqlstore

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const customerColumns = "c.id, c.business_id, c.name, c.phone, c.email, c.address, c.opening_balance, c.created_at, c.updated_at"

// CreateCustomer inserts a customer.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	id, err := insertID(ctx, s.db, `
		INSERT INTO customers (business_id, name, phone, email, address, opening_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.BusinessID, c.Name, c.Phone, c.Email, c.Address, c.OpeningBalance, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	c.ID = id
	return nil
}

// GetCustomer retrieves a customer by ID.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	c := &models.Customer{}
	if err := get(ctx, s.db, c, "SELECT "+customerColumns+" FROM customers c WHERE c.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ListCustomers lists a business's customers, newest first, with their
// transaction totals and current balance.
func (s *Store) ListCustomers(ctx context.Context, businessID int64, page storage.Page) ([]models.CustomerSummary, int, error) {
	query := `
		SELECT ` + customerColumns + `,
			COALESCE((SELECT SUM(t.amount) FROM transactions t
				WHERE t.customer_id = c.id AND t.transaction_type = 'income'), 0) AS total_income,
			COALESCE((SELECT SUM(t.amount) FROM transactions t
				WHERE t.customer_id = c.id AND t.transaction_type = 'expense'), 0) AS total_expense
		FROM customers c
		WHERE c.business_id = ?
		ORDER BY c.id DESC`

	var rows []models.CustomerSummary
	total, err := selectPage(ctx, s.db, &rows, query, page, businessID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		r.OpeningBalance = r.OpeningBalance.Round(moneyPlaces)
		r.TotalIncome = r.TotalIncome.Round(moneyPlaces)
		r.TotalExpense = r.TotalExpense.Round(moneyPlaces)
		r.CurrentBalance = r.OpeningBalance.Add(r.TotalIncome).Sub(r.TotalExpense)
	}
	return rows, total, nil
}

// UpdateCustomer writes the editable customer fields.
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = models.Now()
	err := execAffected(ctx, s.db, `
		UPDATE customers SET name = ?, phone = ?, email = ?, address = ?, opening_balance = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.Address, c.OpeningBalance, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

// DeleteCustomer removes a customer and its transactions.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	if err := execAffected(ctx, s.db, "DELETE FROM customers WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
