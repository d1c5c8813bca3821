package models

import "github.com/shopspring/decimal"

// PaymentRequest asks ToUserID to confirm that FromUserID settled
// (part of) a bill split.
//
// FromUserID is the split's borrower and ToUserID its payer. Accepting the
// request records a payment_transaction bill and marks the split Paid;
// rejecting it marks both Declined, which allows a new request.
type PaymentRequest struct {
	ID              int64           `db:"id" json:"id"`
	BillSplitID     int64           `db:"bill_split_id" json:"bill_split_id"`
	FromUserID      int64           `db:"from_user_id" json:"from_user_id"`
	ToUserID        int64           `db:"to_user_id" json:"to_user_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PaymentStatusID PaymentStatus   `db:"payment_status_id" json:"payment_status_id"`
	CreatedAt       Timestamp       `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp       `db:"updated_at" json:"updated_at"`
}

// PaymentRequestRow is a payment request joined with its split and the
// bill title, as listed to sender and receiver.
type PaymentRequestRow struct {
	PaymentRequest
	Title string    `db:"title"`
	Split BillSplit `db:"split"`
}
