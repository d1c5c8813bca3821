package models

import "github.com/shopspring/decimal"

// Transaction types.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Payment modes accepted on a transaction.
const (
	PaymentModeCash   = "Cash"
	PaymentModeOnline = "Online"
	PaymentModeCard   = "card"
)

// Business user roles.
const (
	RoleOwner = "Owner"
	RoleStaff = "Staff"
)

// Business is a ledger owned by one user.
type Business struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	BusinessName string    `db:"business_name" json:"business_name"`
	Phone        string    `db:"phone" json:"phone"`
	Email        *string   `db:"email" json:"email"`
	Address      *string   `db:"address" json:"address"`
	Currency     *string   `db:"currency" json:"currency"`
	CreatedAt    Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt    Timestamp `db:"updated_at" json:"updated_at"`
}

// BusinessSummary is a business row with its transaction totals.
type BusinessSummary struct {
	Business
	TotalIncome  decimal.Decimal `db:"total_income" json:"total_income"`
	TotalExpense decimal.Decimal `db:"total_expense" json:"total_expense"`
	NetBalance   decimal.Decimal `db:"-" json:"net_balance"`
}

// Customer belongs to one business. OpeningBalance is the signed
// baseline the customer started with.
type Customer struct {
	ID             int64           `db:"id" json:"id"`
	BusinessID     int64           `db:"business_id" json:"business_id"`
	Name           string          `db:"name" json:"name"`
	Phone          string          `db:"phone" json:"phone"`
	Email          *string         `db:"email" json:"email"`
	Address        *string         `db:"address" json:"address"`
	OpeningBalance decimal.Decimal `db:"opening_balance" json:"opening_balance"`
	CreatedAt      Timestamp       `db:"created_at" json:"created_at"`
	UpdatedAt      Timestamp       `db:"updated_at" json:"updated_at"`
}

// CustomerSummary is a customer row with its transaction totals.
type CustomerSummary struct {
	Customer
	TotalIncome    decimal.Decimal `db:"total_income" json:"total_income"`
	TotalExpense   decimal.Decimal `db:"total_expense" json:"total_expense"`
	CurrentBalance decimal.Decimal `db:"-" json:"current_balance"`
}

// Transaction is one income or expense entry against a customer.
type Transaction struct {
	ID              int64           `db:"id" json:"id"`
	BusinessID      int64           `db:"business_id" json:"business_id"`
	CustomerID      int64           `db:"customer_id" json:"customer_id"`
	TransactionType string          `db:"transaction_type" json:"transaction_type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Description     *string         `db:"description" json:"description"`
	TransactionDate string          `db:"transaction_date" json:"transaction_date"`
	PaymentMode     string          `db:"payment_mode" json:"payment_mode"`
	CreatedAt       Timestamp       `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp       `db:"updated_at" json:"updated_at"`
}

// TransactionTotals aggregates income and expense over a set of
// transactions.
type TransactionTotals struct {
	TotalIncome  decimal.Decimal `db:"total_income" json:"total_income"`
	TotalExpense decimal.Decimal `db:"total_expense" json:"total_expense"`
	NetBalance   decimal.Decimal `db:"-" json:"net_balance"`
}

// BusinessUser grants a user a role on a business.
type BusinessUser struct {
	ID         int64     `db:"id" json:"id"`
	BusinessID int64     `db:"business_id" json:"business_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Role       string    `db:"role" json:"role"`
	CreatedAt  Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt  Timestamp `db:"updated_at" json:"updated_at"`
}

// BusinessMember is a BusinessUser with the user's public fields.
type BusinessMember struct {
	BusinessUser
	User struct {
		ID        int64  `db:"id" json:"id"`
		FirstName string `db:"first_name" json:"first_name"`
		LastName  string `db:"last_name" json:"last_name"`
		Email     string `db:"email" json:"email"`
	} `db:"user" json:"user"`
}
