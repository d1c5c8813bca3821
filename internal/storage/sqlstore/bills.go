package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const billColumns = `b.id, b.group_id, b.bill_type_id, b.title, b.amount, b.is_split_equally, b.paid_by,
	b.created_by, b.notes, b.address, b.latitude, b.longitude, b.bill_create_date, b.created_at, b.updated_at`

const splitColumns = "bs.id, bs.bill_id, bs.paid_by, bs.borrow_by, bs.amount, bs.payment_status_id, bs.created_at, bs.updated_at"

// newestFirst orders bills by creation, breaking ties on id.
const newestFirst = " ORDER BY b.created_at DESC, b.id DESC"

// BillTypeByTitle looks up a seeded bill type.
func (s *Store) BillTypeByTitle(ctx context.Context, title string) (*models.BillType, error) {
	bt := &models.BillType{}
	if err := get(ctx, s.db, bt, "SELECT id, title FROM master_bill_types WHERE title = ?", title); err != nil {
		return nil, fmt.Errorf("failed to get bill type: %w", err)
	}
	return bt, nil
}

// BillTypeExists reports whether id is a seeded bill type.
func (s *Store) BillTypeExists(ctx context.Context, id int64) (bool, error) {
	ok, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM master_bill_types WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check bill type: %w", err)
	}
	return ok, nil
}

// CreateBill persists a bill with its participants and splits. Either all
// rows are written or none are.
func (s *Store) CreateBill(ctx context.Context, bill *models.Bill, participantIDs []int64, splits []*models.BillSplit) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertBill(ctx, tx, bill, participantIDs, splits)
	})
}

func insertBill(ctx context.Context, q sqlx.ExtContext, bill *models.Bill, participantIDs []int64, splits []*models.BillSplit) error {
	id, err := insertID(ctx, q, `
		INSERT INTO bills (group_id, bill_type_id, title, amount, is_split_equally, paid_by, created_by,
			notes, address, latitude, longitude, bill_create_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.GroupID, bill.BillTypeID, bill.Title, bill.Amount, bill.IsSplitEqually, bill.PaidBy, bill.CreatedBy,
		bill.Notes, bill.Address, bill.Latitude, bill.Longitude, bill.BillCreateDate, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	bill.ID = id

	for _, userID := range participantIDs {
		_, err := exec(ctx, q, "INSERT INTO bill_users (bill_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			bill.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to insert bill participant: %w", err)
		}
	}

	for _, split := range splits {
		split.BillID = bill.ID
		id, err := insertID(ctx, q, `
			INSERT INTO bill_splits (bill_id, paid_by, borrow_by, amount, payment_status_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			split.BillID, split.PaidBy, split.BorrowBy, split.Amount, split.PaymentStatusID, split.CreatedAt, split.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill split: %w", err)
		}
		split.ID = id
	}
	return nil
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill := &models.Bill{}
	if err := get(ctx, s.db, bill, "SELECT "+billColumns+" FROM bills b WHERE b.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// ListBillsByGroup lists a group's bills, newest first.
func (s *Store) ListBillsByGroup(ctx context.Context, groupID int64, page storage.Page) ([]models.Bill, int, error) {
	var bills []models.Bill
	query := "SELECT " + billColumns + " FROM bills b WHERE b.group_id = ?" + newestFirst
	total, err := selectPage(ctx, s.db, &bills, query, page, groupID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list group bills: %w", err)
	}
	return bills, total, nil
}

// ListBillsForGroups returns every bill of the given groups, newest first.
func (s *Store) ListBillsForGroups(ctx context.Context, groupIDs []int64) ([]models.Bill, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var bills []models.Bill
	if err := selectIn(ctx, s.db, &bills, "SELECT "+billColumns+" FROM bills b WHERE b.group_id IN (?)"+newestFirst, groupIDs); err != nil {
		return nil, fmt.Errorf("failed to list bills for groups: %w", err)
	}
	return bills, nil
}

// ListHostedBills lists bills paid by the user, excluding one bill type.
func (s *Store) ListHostedBills(ctx context.Context, userID, excludeTypeID int64, page storage.Page) ([]models.Bill, int, error) {
	var bills []models.Bill
	query := "SELECT " + billColumns + " FROM bills b WHERE b.paid_by = ? AND b.bill_type_id <> ?" + newestFirst
	total, err := selectPage(ctx, s.db, &bills, query, page, userID, excludeTypeID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list hosted bills: %w", err)
	}
	return bills, total, nil
}

// ListBorrowedBills lists bills where the user owes a split to someone
// else, excluding one bill type.
func (s *Store) ListBorrowedBills(ctx context.Context, userID, excludeTypeID int64, page storage.Page) ([]models.Bill, int, error) {
	var bills []models.Bill
	query := "SELECT " + billColumns + ` FROM bills b
		WHERE b.paid_by <> ? AND b.bill_type_id <> ?
			AND EXISTS (SELECT 1 FROM bill_splits bs WHERE bs.bill_id = b.id AND bs.borrow_by = ?)` + newestFirst
	total, err := selectPage(ctx, s.db, &bills, query, page, userID, excludeTypeID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list borrowed bills: %w", err)
	}
	return bills, total, nil
}

// ListBillsBetween lists bills holding a split between a and b.
func (s *Store) ListBillsBetween(ctx context.Context, a, b int64, page storage.Page) ([]models.Bill, int, error) {
	var bills []models.Bill
	query := "SELECT " + billColumns + ` FROM bills b
		WHERE EXISTS (
			SELECT 1 FROM bill_splits bs WHERE bs.bill_id = b.id
				AND ((bs.paid_by = ? AND bs.borrow_by = ?) OR (bs.paid_by = ? AND bs.borrow_by = ?))
		)` + newestFirst
	total, err := selectPage(ctx, s.db, &bills, query, page, a, b, b, a)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shared bills: %w", err)
	}
	return bills, total, nil
}

// BillAccessible reports whether the user is connected to the bill.
func (s *Store) BillAccessible(ctx context.Context, billID, userID int64) (bool, error) {
	ok, err := exists(ctx, s.db, `
		SELECT EXISTS (SELECT 1 FROM bills WHERE id = ? AND (paid_by = ? OR created_by = ?))
			OR EXISTS (SELECT 1 FROM bill_users WHERE bill_id = ? AND user_id = ?)
			OR EXISTS (SELECT 1 FROM bill_splits WHERE bill_id = ? AND (paid_by = ? OR borrow_by = ?))`,
		billID, userID, userID, billID, userID, billID, userID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check bill access: %w", err)
	}
	return ok, nil
}

// SplitsForBills returns the splits of the given bills in creation order.
func (s *Store) SplitsForBills(ctx context.Context, billIDs []int64) ([]models.BillSplit, error) {
	if len(billIDs) == 0 {
		return nil, nil
	}
	var splits []models.BillSplit
	if err := selectIn(ctx, s.db, &splits, "SELECT "+splitColumns+" FROM bill_splits bs WHERE bs.bill_id IN (?) ORDER BY bs.id", billIDs); err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	return splits, nil
}

// SplitsForGroup returns every split of the group's bills.
func (s *Store) SplitsForGroup(ctx context.Context, groupID int64) ([]models.BillSplit, error) {
	var splits []models.BillSplit
	err := sqlx.SelectContext(ctx, s.db, &splits, s.db.Rebind("SELECT "+splitColumns+`
		FROM bill_splits bs
		JOIN bills b ON b.id = bs.bill_id
		WHERE b.group_id = ?
		ORDER BY bs.id`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group splits: %w", err)
	}
	return splits, nil
}

// SplitsForUser returns every split the user is payer or borrower of.
func (s *Store) SplitsForUser(ctx context.Context, userID int64) ([]models.BillSplit, error) {
	var splits []models.BillSplit
	err := sqlx.SelectContext(ctx, s.db, &splits, s.db.Rebind("SELECT "+splitColumns+`
		FROM bill_splits bs
		WHERE bs.paid_by = ? OR bs.borrow_by = ?
		ORDER BY bs.id`), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user splits: %w", err)
	}
	return splits, nil
}

// GetBillSplit retrieves a split by ID.
func (s *Store) GetBillSplit(ctx context.Context, id int64) (*models.BillSplit, error) {
	split := &models.BillSplit{}
	if err := get(ctx, s.db, split, "SELECT "+splitColumns+" FROM bill_splits bs WHERE bs.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get bill split: %w", err)
	}
	return split, nil
}

// ListFriends returns the active users who share a group, a bill or a split
// with userID.
func (s *Store) ListFriends(ctx context.Context, userID int64) ([]models.User, error) {
	var users []models.User
	err := sqlx.SelectContext(ctx, s.db, &users, s.db.Rebind("SELECT "+userColumns+`
		FROM users
		WHERE deleted_at IS NULL AND id <> ? AND (
			id IN (SELECT o.user_id FROM group_users m JOIN group_users o ON o.group_id = m.group_id WHERE m.user_id = ?)
			OR id IN (SELECT o.user_id FROM bill_users m JOIN bill_users o ON o.bill_id = m.bill_id WHERE m.user_id = ?)
			OR id IN (SELECT borrow_by FROM bill_splits WHERE paid_by = ?)
			OR id IN (SELECT paid_by FROM bill_splits WHERE borrow_by = ?)
		)
		ORDER BY id`), userID, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return users, nil
}
