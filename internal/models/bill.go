package models

import "github.com/shopspring/decimal"

// Bill type titles seeded in master_bill_types.
const (
	BillTypeDefault            = "default"
	BillTypePaymentTransaction = "payment_transaction"
)

// BillType is a seeded lookup row. Bills of type payment_transaction
// record settlements and are hidden from bill listings.
type BillType struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// Bill is an expense paid by one user and split among participants.
type Bill struct {
	ID             int64           `db:"id" json:"id"`
	GroupID        *int64          `db:"group_id" json:"group_id"`
	BillTypeID     int64           `db:"bill_type_id" json:"bill_type_id"`
	Title          string          `db:"title" json:"title"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	IsSplitEqually bool            `db:"is_split_equally" json:"is_split_equally"`
	PaidBy         int64           `db:"paid_by" json:"paid_by"`
	CreatedBy      int64           `db:"created_by" json:"created_by"`
	Notes          *string         `db:"notes" json:"notes"`
	Address        *string         `db:"address" json:"address"`
	Latitude       *float64        `db:"latitude" json:"latitude"`
	Longitude      *float64        `db:"longitude" json:"longitude"`
	BillCreateDate *string         `db:"bill_create_date" json:"bill_create_date"`
	CreatedAt      Timestamp       `db:"created_at" json:"created_at"`
	UpdatedAt      Timestamp       `db:"updated_at" json:"updated_at"`
}
