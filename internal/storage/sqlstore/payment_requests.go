package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const paymentRequestColumns = `pr.id, pr.bill_split_id, pr.from_user_id, pr.to_user_id, pr.amount,
	pr.payment_status_id, pr.created_at, pr.updated_at`

// PaymentStatusExists reports whether id is a seeded payment status.
func (s *Store) PaymentStatusExists(ctx context.Context, id int64) (bool, error) {
	ok, err := exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM master_payment_statuses WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check payment status: %w", err)
	}
	return ok, nil
}

// ActivePaymentRequestExists reports whether the split has a request that
// was not declined.
func (s *Store) ActivePaymentRequestExists(ctx context.Context, splitID int64) (bool, error) {
	ok, err := exists(ctx, s.db,
		"SELECT EXISTS (SELECT 1 FROM payment_requests WHERE bill_split_id = ? AND payment_status_id <> ?)",
		splitID, models.StatusDeclined)
	if err != nil {
		return false, fmt.Errorf("failed to check payment requests: %w", err)
	}
	return ok, nil
}

// CreatePaymentRequest persists a new payment request and sets its split
// back to Pending.
func (s *Store) CreatePaymentRequest(ctx context.Context, pr *models.PaymentRequest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := insertID(ctx, tx, `
			INSERT INTO payment_requests (bill_split_id, from_user_id, to_user_id, amount, payment_status_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pr.BillSplitID, pr.FromUserID, pr.ToUserID, pr.Amount, pr.PaymentStatusID, pr.CreatedAt, pr.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment request: %w", err)
		}
		pr.ID = id

		if err := setSplitStatus(ctx, tx, pr.BillSplitID, models.StatusPending); err != nil {
			return err
		}
		return nil
	})
}

// GetPaymentRequest retrieves a payment request by ID.
func (s *Store) GetPaymentRequest(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	pr := &models.PaymentRequest{}
	if err := get(ctx, s.db, pr, "SELECT "+paymentRequestColumns+" FROM payment_requests pr WHERE pr.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return pr, nil
}

// ListPaymentRequests lists the requests sent or received by a user,
// newest first, with the bill title and split attached.
func (s *Store) ListPaymentRequests(ctx context.Context, userID int64, sent bool, page storage.Page) ([]models.PaymentRequestRow, int, error) {
	side := "pr.to_user_id"
	if sent {
		side = "pr.from_user_id"
	}
	query := "SELECT " + paymentRequestColumns + `,
			b.title AS title,
			bs.id AS "split.id", bs.bill_id AS "split.bill_id", bs.paid_by AS "split.paid_by",
			bs.borrow_by AS "split.borrow_by", bs.amount AS "split.amount",
			bs.payment_status_id AS "split.payment_status_id",
			bs.created_at AS "split.created_at", bs.updated_at AS "split.updated_at"
		FROM payment_requests pr
		JOIN bill_splits bs ON bs.id = pr.bill_split_id
		JOIN bills b ON b.id = bs.bill_id
		WHERE ` + side + ` = ?
		ORDER BY pr.id DESC`

	var rows []models.PaymentRequestRow
	total, err := selectPage(ctx, s.db, &rows, query, page, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment requests: %w", err)
	}
	return rows, total, nil
}

// AcceptPaymentRequest writes the settlement bill and marks the request and
// its original split Paid. Fails with storage.ErrNotFound when the request
// is no longer Pending.
func (s *Store) AcceptPaymentRequest(ctx context.Context, pr *models.PaymentRequest, bill *models.Bill, split *models.BillSplit) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := setRequestStatus(ctx, tx, pr.ID, models.StatusPaid); err != nil {
			return err
		}
		participants := []int64{bill.PaidBy, split.BorrowBy}
		if err := insertBill(ctx, tx, bill, participants, []*models.BillSplit{split}); err != nil {
			return err
		}
		if err := setSplitStatus(ctx, tx, pr.BillSplitID, models.StatusPaid); err != nil {
			return err
		}
		pr.PaymentStatusID = models.StatusPaid
		return nil
	})
}

// RejectPaymentRequest marks the request and its split Declined.
func (s *Store) RejectPaymentRequest(ctx context.Context, pr *models.PaymentRequest) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := setRequestStatus(ctx, tx, pr.ID, models.StatusDeclined); err != nil {
			return err
		}
		if err := setSplitStatus(ctx, tx, pr.BillSplitID, models.StatusDeclined); err != nil {
			return err
		}
		pr.PaymentStatusID = models.StatusDeclined
		return nil
	})
}

// setRequestStatus moves a Pending request to status.
func setRequestStatus(ctx context.Context, q sqlx.ExtContext, id int64, status models.PaymentStatus) error {
	err := execAffected(ctx, q,
		"UPDATE payment_requests SET payment_status_id = ?, updated_at = ? WHERE id = ? AND payment_status_id = ?",
		status, models.Now(), id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	return nil
}

func setSplitStatus(ctx context.Context, q sqlx.ExtContext, id int64, status models.PaymentStatus) error {
	if err := execAffected(ctx, q,
		"UPDATE bill_splits SET payment_status_id = ?, updated_at = ? WHERE id = ?",
		status, models.Now(), id); err != nil {
		return fmt.Errorf("failed to update bill split: %w", err)
	}
	return nil
}
