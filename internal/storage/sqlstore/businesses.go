package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const businessColumns = "b.id, b.user_id, b.business_name, b.phone, b.email, b.address, b.currency, b.created_at, b.updated_at"

// moneyPlaces is the precision aggregates are rounded to after scanning,
// since SQLite sums NUMERIC columns as floating point.
const moneyPlaces = 2

// CreateBusiness persists the business and registers its owner as an Owner
// business user.
func (s *Store) CreateBusiness(ctx context.Context, b *models.Business) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := insertID(ctx, tx, `
			INSERT INTO businesses (user_id, business_name, phone, email, address, currency, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.UserID, b.BusinessName, b.Phone, b.Email, b.Address, b.Currency, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert business: %w", err)
		}
		b.ID = id

		_, err = exec(ctx, tx, `
			INSERT INTO business_users (business_id, user_id, role, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			b.ID, b.UserID, models.RoleOwner, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert business owner: %w", err)
		}
		return nil
	})
}

// GetBusiness retrieves a business by ID.
func (s *Store) GetBusiness(ctx context.Context, id int64) (*models.Business, error) {
	b := &models.Business{}
	if err := get(ctx, s.db, b, "SELECT "+businessColumns+" FROM businesses b WHERE b.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// ListBusinesses lists the businesses a user owns or works in, newest
// first, with their income and expense totals.
func (s *Store) ListBusinesses(ctx context.Context, userID int64, page storage.Page) ([]models.BusinessSummary, int, error) {
	query := `
		SELECT ` + businessColumns + `,
			COALESCE((SELECT SUM(t.amount) FROM transactions t
				WHERE t.business_id = b.id AND t.transaction_type = 'income'), 0) AS total_income,
			COALESCE((SELECT SUM(t.amount) FROM transactions t
				WHERE t.business_id = b.id AND t.transaction_type = 'expense'), 0) AS total_expense
		FROM businesses b
		WHERE b.user_id = ?
			OR EXISTS (SELECT 1 FROM business_users bu WHERE bu.business_id = b.id AND bu.user_id = ?)
		ORDER BY b.id DESC`

	var rows []models.BusinessSummary
	total, err := selectPage(ctx, s.db, &rows, query, page, userID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list businesses: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		r.TotalIncome = r.TotalIncome.Round(moneyPlaces)
		r.TotalExpense = r.TotalExpense.Round(moneyPlaces)
		r.NetBalance = r.TotalIncome.Sub(r.TotalExpense)
	}
	return rows, total, nil
}

// UpdateBusiness writes the editable business fields.
func (s *Store) UpdateBusiness(ctx context.Context, b *models.Business) error {
	b.UpdatedAt = models.Now()
	err := execAffected(ctx, s.db, `
		UPDATE businesses SET business_name = ?, phone = ?, email = ?, address = ?, currency = ?, updated_at = ?
		WHERE id = ?`,
		b.BusinessName, b.Phone, b.Email, b.Address, b.Currency, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	return nil
}

// DeleteBusiness removes a business. Customers, transactions and business
// users cascade.
func (s *Store) DeleteBusiness(ctx context.Context, id int64) error {
	if err := execAffected(ctx, s.db, "DELETE FROM businesses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	return nil
}

// HasBusinessAccess reports whether the user owns or works in the business.
func (s *Store) HasBusinessAccess(ctx context.Context, businessID, userID int64) (bool, error) {
	ok, err := exists(ctx, s.db, `
		SELECT EXISTS (SELECT 1 FROM businesses WHERE id = ? AND user_id = ?)
			OR EXISTS (SELECT 1 FROM business_users WHERE business_id = ? AND user_id = ?)`,
		businessID, userID, businessID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check business access: %w", err)
	}
	return ok, nil
}

// HasBusinessRole reports whether the user holds role on the business.
func (s *Store) HasBusinessRole(ctx context.Context, businessID, userID int64, role string) (bool, error) {
	ok, err := exists(ctx, s.db,
		"SELECT EXISTS (SELECT 1 FROM business_users WHERE business_id = ? AND user_id = ? AND role = ?)",
		businessID, userID, role)
	if err != nil {
		return false, fmt.Errorf("failed to check business role: %w", err)
	}
	return ok, nil
}

// ListBusinessMembers lists the business's users with their public fields.
func (s *Store) ListBusinessMembers(ctx context.Context, businessID int64) ([]models.BusinessMember, error) {
	var members []models.BusinessMember
	err := sqlx.SelectContext(ctx, s.db, &members, s.db.Rebind(`
		SELECT bu.id, bu.business_id, bu.user_id, bu.role, bu.created_at, bu.updated_at,
			u.id AS "user.id", u.first_name AS "user.first_name",
			u.last_name AS "user.last_name", u.email AS "user.email"
		FROM business_users bu
		JOIN users u ON u.id = bu.user_id
		WHERE bu.business_id = ?
		ORDER BY bu.id`), businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list business users: %w", err)
	}
	return members, nil
}

// GetBusinessUser retrieves a business user row by ID.
func (s *Store) GetBusinessUser(ctx context.Context, id int64) (*models.BusinessUser, error) {
	bu := &models.BusinessUser{}
	err := get(ctx, s.db, bu,
		"SELECT id, business_id, user_id, role, created_at, updated_at FROM business_users WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get business user: %w", err)
	}
	return bu, nil
}

// BusinessUserExists reports whether the user already belongs to the
// business.
func (s *Store) BusinessUserExists(ctx context.Context, businessID, userID int64) (bool, error) {
	ok, err := exists(ctx, s.db,
		"SELECT EXISTS (SELECT 1 FROM business_users WHERE business_id = ? AND user_id = ?)",
		businessID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check business user: %w", err)
	}
	return ok, nil
}

// CreateBusinessUser inserts a business user row.
func (s *Store) CreateBusinessUser(ctx context.Context, bu *models.BusinessUser) error {
	id, err := insertID(ctx, s.db, `
		INSERT INTO business_users (business_id, user_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		bu.BusinessID, bu.UserID, bu.Role, bu.CreatedAt, bu.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create business user: %w", err)
	}
	bu.ID = id
	return nil
}

// UpdateBusinessUserRole changes a business user's role.
func (s *Store) UpdateBusinessUserRole(ctx context.Context, id int64, role string) error {
	err := execAffected(ctx, s.db, "UPDATE business_users SET role = ?, updated_at = ? WHERE id = ?",
		role, models.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update business user: %w", err)
	}
	return nil
}

// DeleteBusinessUser removes a business user row.
func (s *Store) DeleteBusinessUser(ctx context.Context, id int64) error {
	if err := execAffected(ctx, s.db, "DELETE FROM business_users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete business user: %w", err)
	}
	return nil
}
