package sqlstore

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

const userColumns = `id, first_name, last_name, email, phone, image_url, password, fcm_token,
	is_admin, is_email_verify, is_phone_verify, created_at, updated_at, deleted_at`

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, phone, image_url, password, fcm_token,
			is_admin, is_email_verify, is_phone_verify, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := insertID(ctx, s.db, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.ImageURL,
		user.PasswordHash,
		user.FCMToken,
		user.IsAdmin,
		user.IsEmailVerify,
		user.IsPhoneVerify,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	if err := get(ctx, s.db, user, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByLogin retrieves a user by email address or phone number.
func (s *Store) GetUserByLogin(ctx context.Context, handle string) (*models.User, error) {
	user := &models.User{}
	query := "SELECT " + userColumns + " FROM users WHERE email = ? OR phone = ? ORDER BY id LIMIT 1"
	if err := get(ctx, s.db, user, query, handle, handle); err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return user, nil
}

// EmailTaken reports whether a user other than exceptID uses email.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	taken, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM users WHERE email = ? AND id <> ?)", email, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// PhoneTaken reports whether a user other than exceptID uses phone.
func (s *Store) PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error) {
	taken, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM users WHERE phone = ? AND id <> ?)", phone, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return taken, nil
}

// UpdateUser writes the editable profile fields.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = models.Now()
	err := execAffected(ctx, s.db, `
		UPDATE users SET first_name = ?, last_name = ?, phone = ?, image_url = ?, fcm_token = ?, updated_at = ?
		WHERE id = ?`,
		user.FirstName, user.LastName, user.Phone, user.ImageURL, user.FCMToken, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateFCMToken stores the push token reported at login.
func (s *Store) UpdateFCMToken(ctx context.Context, userID int64, token string) error {
	err := execAffected(ctx, s.db, "UPDATE users SET fcm_token = ?, updated_at = ? WHERE id = ?",
		token, models.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	err := execAffected(ctx, s.db, "UPDATE users SET password = ?, updated_at = ? WHERE id = ?",
		hash, models.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SoftDeleteUser marks the user deleted. Rows referencing the user stay.
func (s *Store) SoftDeleteUser(ctx context.Context, userID int64) error {
	now := models.Now()
	err := execAffected(ctx, s.db, "UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ExistingUserIDs filters ids down to active users.
func (s *Store) ExistingUserIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	if err := selectIn(ctx, s.db, &found, "SELECT id FROM users WHERE id IN (?) AND deleted_at IS NULL", ids); err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	return found, nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User object.
// Users that don't exist are omitted from the result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []models.User
	if err := selectIn(ctx, s.db, &rows, "SELECT "+userColumns+" FROM users WHERE id IN (?)", ids); err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	for i := range rows {
		users[rows[i].ID] = &rows[i]
	}
	return users, nil
}

// UserHasOutstandingSplits reports whether the user is party to any
// unsettled split.
func (s *Store) UserHasOutstandingSplits(ctx context.Context, userID int64) (bool, error) {
	found, err := exists(ctx, s.db, `
		SELECT EXISTS (
			SELECT 1 FROM bill_splits
			WHERE (paid_by = ? OR borrow_by = ?) AND paid_by <> borrow_by AND payment_status_id <> ?
		)`, userID, userID, models.StatusPaid)
	if err != nil {
		return false, fmt.Errorf("failed to check outstanding splits: %w", err)
	}
	return found, nil
}

// RevokeToken records a logged-out token id until it expires.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt models.Timestamp) error {
	if _, err := exec(ctx, s.db, "DELETE FROM revoked_tokens WHERE expires_at < ?", models.Now()); err != nil {
		return fmt.Errorf("failed to prune revoked tokens: %w", err)
	}
	_, err := exec(ctx, s.db,
		"INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT DO NOTHING",
		jti, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti was revoked by a logout.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)", jti)
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return revoked, nil
}
