package models

import "github.com/shopspring/decimal"

// PaymentStatus is the lifecycle state of a bill split or payment request.
// Values match the seeded master_payment_statuses rows.
type PaymentStatus int64

const (
	StatusPending  PaymentStatus = 1
	StatusPaid     PaymentStatus = 2
	StatusDeclined PaymentStatus = 3
)

// String returns the display label of the status.
func (s PaymentStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPaid:
		return "Paid"
	case StatusDeclined:
		return "Declined"
	default:
		return "Unknown"
	}
}

// Outstanding reports whether the status still blocks settlement.
func (s PaymentStatus) Outstanding() bool {
	return s == StatusPending || s == StatusDeclined
}

// BillSplit records that BorrowBy owes PaidBy Amount for one bill.
//
// A split where PaidBy == BorrowBy is the payer's own share. It is created
// as Paid and nets to zero in every balance.
type BillSplit struct {
	ID              int64           `db:"id" json:"id"`
	BillID          int64           `db:"bill_id" json:"bill_id"`
	PaidBy          int64           `db:"paid_by" json:"paid_by"`
	BorrowBy        int64           `db:"borrow_by" json:"borrow_by"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PaymentStatusID PaymentStatus   `db:"payment_status_id" json:"payment_status_id"`
	CreatedAt       Timestamp       `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp       `db:"updated_at" json:"updated_at"`
}

// SelfSplit reports whether the split is the payer's own share.
func (s BillSplit) SelfSplit() bool {
	return s.PaidBy == s.BorrowBy
}
