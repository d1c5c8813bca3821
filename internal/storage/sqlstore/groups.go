package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const groupColumns = "g.id, g.name, g.group_type_id, g.image_url, g.created_by, g.created_at, g.updated_at"

// ListGroupTypes returns the seeded group types.
func (s *Store) ListGroupTypes(ctx context.Context) ([]models.GroupType, error) {
	var types []models.GroupType
	if err := sqlx.SelectContext(ctx, s.db, &types, "SELECT id, title FROM group_types ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list group types: %w", err)
	}
	return types, nil
}

// GroupTypeExists reports whether id is a seeded group type.
func (s *Store) GroupTypeExists(ctx context.Context, id int64) (bool, error) {
	ok, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM group_types WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check group type: %w", err)
	}
	return ok, nil
}

// CreateGroup persists a new group with its creator as admin and the
// given members.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group, memberIDs []int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := insertID(ctx, tx, `
			INSERT INTO groups (name, group_type_id, image_url, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.Name, g.GroupTypeID, g.ImageURL, g.CreatedBy, g.CreatedAt, g.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		g.ID = id

		if err := insertGroupUser(ctx, tx, g.ID, g.CreatedBy, true, g.CreatedAt); err != nil {
			return err
		}
		for _, userID := range memberIDs {
			if userID == g.CreatedBy {
				continue
			}
			if err := insertGroupUser(ctx, tx, g.ID, userID, false, g.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertGroupUser(ctx context.Context, q sqlx.ExtContext, groupID, userID int64, admin bool, at models.Timestamp) error {
	_, err := exec(ctx, q, `
		INSERT INTO group_users (group_id, user_id, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		groupID, userID, admin, at, at,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	g := &models.Group{}
	if err := get(ctx, s.db, g, "SELECT "+groupColumns+" FROM groups g WHERE g.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// UpdateGroup writes the editable group fields.
func (s *Store) UpdateGroup(ctx context.Context, g *models.Group) error {
	g.UpdatedAt = models.Now()
	err := execAffected(ctx, s.db,
		"UPDATE groups SET name = ?, group_type_id = ?, image_url = ?, updated_at = ? WHERE id = ?",
		g.Name, g.GroupTypeID, g.ImageURL, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// DeleteGroup removes a group. Memberships cascade; bills keep a NULL group.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	if err := execAffected(ctx, s.db, "DELETE FROM groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// GetGroupUser retrieves a membership row.
func (s *Store) GetGroupUser(ctx context.Context, groupID, userID int64) (*models.GroupUser, error) {
	gu := &models.GroupUser{}
	err := get(ctx, s.db, gu, `
		SELECT id, group_id, user_id, is_admin, created_at, updated_at
		FROM group_users WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}
	return gu, nil
}

// AddGroupUsers adds the users that are not members yet and returns the
// ids that were added.
func (s *Store) AddGroupUsers(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error) {
	var added []int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := models.Now()
		for _, userID := range userIDs {
			member, err := exists(ctx, tx,
				"SELECT EXISTS (SELECT 1 FROM group_users WHERE group_id = ? AND user_id = ?)", groupID, userID)
			if err != nil {
				return fmt.Errorf("failed to check group member: %w", err)
			}
			if member {
				continue
			}
			if err := insertGroupUser(ctx, tx, groupID, userID, false, now); err != nil {
				return err
			}
			added = append(added, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveGroupUsers deletes the memberships of userIDs.
func (s *Store) RemoveGroupUsers(ctx context.Context, groupID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM group_users WHERE group_id = ? AND user_id IN (?)", groupID, userIDs)
	if err != nil {
		return fmt.Errorf("failed to build member removal: %w", err)
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, query, args...); err != nil {
			return fmt.Errorf("failed to remove group members: %w", err)
		}
		return promoteOldestMember(ctx, tx, groupID)
	})
}

// promoteOldestMember makes the longest-standing member admin when the
// group has members but no admin left.
func promoteOldestMember(ctx context.Context, tx *sqlx.Tx, groupID int64) error {
	_, err := exec(ctx, tx, `
		UPDATE group_users SET is_admin = ?, updated_at = ?
		WHERE id = (SELECT MIN(id) FROM group_users WHERE group_id = ?)
		AND NOT EXISTS (SELECT 1 FROM group_users WHERE group_id = ? AND is_admin = ?)`,
		true, models.Now(), groupID, groupID, true,
	)
	if err != nil {
		return fmt.Errorf("failed to promote group admin: %w", err)
	}
	return nil
}

// ListGroupMembers returns the users of a group in join order.
func (s *Store) ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error) {
	var users []models.User
	err := sqlx.SelectContext(ctx, s.db, &users, s.db.Rebind(`
		SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.image_url, u.password, u.fcm_token,
			u.is_admin, u.is_email_verify, u.is_phone_verify, u.created_at, u.updated_at, u.deleted_at
		FROM group_users gu
		JOIN users u ON u.id = gu.user_id
		WHERE gu.group_id = ?
		ORDER BY gu.id`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return users, nil
}

// ListGroupsForUser lists the groups the user belongs to, newest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID int64, page storage.Page) ([]models.Group, int, error) {
	query := "SELECT " + groupColumns + `
		FROM groups g
		JOIN group_users gu ON gu.group_id = g.id
		WHERE gu.user_id = ?
		ORDER BY g.id DESC`

	var groups []models.Group
	total, err := selectPage(ctx, s.db, &groups, query, page, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, total, nil
}

// GroupHasOutstandingSplits reports whether any bill of the group still has
// an unsettled split.
func (s *Store) GroupHasOutstandingSplits(ctx context.Context, groupID int64) (bool, error) {
	ok, err := exists(ctx, s.db, `
		SELECT EXISTS (
			SELECT 1 FROM bill_splits bs
			JOIN bills b ON b.id = bs.bill_id
			WHERE b.group_id = ? AND bs.payment_status_id <> ?
		)`, groupID, models.StatusPaid)
	if err != nil {
		return false, fmt.Errorf("failed to check group splits: %w", err)
	}
	return ok, nil
}

// UsersWithOutstandingSplits returns which of userIDs are payer or borrower
// of an unsettled split on the group's bills.
func (s *Store) UsersWithOutstandingSplits(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var blocked []int64
	err := selectIn(ctx, s.db, &blocked, `
		SELECT u.id FROM users u
		WHERE u.id IN (?) AND EXISTS (
			SELECT 1 FROM bill_splits bs
			JOIN bills b ON b.id = bs.bill_id
			WHERE b.group_id = ? AND bs.payment_status_id <> ?
				AND (bs.paid_by = u.id OR bs.borrow_by = u.id)
		)
		ORDER BY u.id`, userIDs, groupID, models.StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to check member splits: %w", err)
	}
	return blocked, nil
}
