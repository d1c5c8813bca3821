// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Page selects a window of a list. Number is 1-based; zero means the whole
// list is returned and no count query is run.
type Page struct {
	Number int
	Limit  int
}

// Paginated reports whether a window was requested.
func (p Page) Paginated() bool {
	return p.Number > 0
}

// Offset is the number of rows skipped before the window.
func (p Page) Offset() int {
	if !p.Paginated() {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TransactionFilter narrows a business's transaction list. Zero values are
// ignored. Dates are inclusive and in models.DateLayout.
type TransactionFilter struct {
	BusinessID      int64
	CustomerID      int64
	TransactionType string
	FromDate        string
	ToDate          string
}

// UserStore persists accounts and revoked tokens.
type UserStore interface {
	// CreateUser persists a new user. user.ID is populated by the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns the user, soft-deleted or not.
	// Returns ErrNotFound if no row exists.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByLogin finds a user whose email or phone equals handle.
	// Returns ErrNotFound if no row exists.
	GetUserByLogin(ctx context.Context, handle string) (*models.User, error)

	// EmailTaken and PhoneTaken report whether another user (not exceptID)
	// already holds the value.
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error)

	// UpdateUser writes the profile fields of user.
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateFCMToken(ctx context.Context, userID int64, token string) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	SoftDeleteUser(ctx context.Context, userID int64) error

	// ExistingUserIDs returns the subset of ids that belong to active users.
	ExistingUserIDs(ctx context.Context, ids []int64) ([]int64, error)

	// GetUsersByIDs returns users keyed by ID. Missing ids are omitted.
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)

	// UserHasOutstandingSplits reports whether the user is payer or
	// borrower of a Pending or Declined split.
	UserHasOutstandingSplits(ctx context.Context, userID int64) (bool, error)

	RevokeToken(ctx context.Context, jti string, expiresAt models.Timestamp) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// BusinessStore persists the business ledger.
type BusinessStore interface {
	// CreateBusiness persists the business and makes its owner an Owner
	// business user in the same transaction.
	CreateBusiness(ctx context.Context, b *models.Business) error
	GetBusiness(ctx context.Context, id int64) (*models.Business, error)
	ListBusinesses(ctx context.Context, ownerID int64, page Page) ([]models.BusinessSummary, int, error)
	UpdateBusiness(ctx context.Context, b *models.Business) error
	DeleteBusiness(ctx context.Context, id int64) error

	// HasBusinessAccess reports whether the user owns the business or has
	// any business_users row on it.
	HasBusinessAccess(ctx context.Context, businessID, userID int64) (bool, error)
	HasBusinessRole(ctx context.Context, businessID, userID int64, role string) (bool, error)

	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, businessID int64, page Page) ([]models.CustomerSummary, int, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, page Page) ([]models.Transaction, int, error)
	TransactionTotals(ctx context.Context, filter TransactionFilter) (models.TransactionTotals, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	ListBusinessMembers(ctx context.Context, businessID int64) ([]models.BusinessMember, error)
	GetBusinessUser(ctx context.Context, id int64) (*models.BusinessUser, error)
	BusinessUserExists(ctx context.Context, businessID, userID int64) (bool, error)
	CreateBusinessUser(ctx context.Context, bu *models.BusinessUser) error
	UpdateBusinessUserRole(ctx context.Context, id int64, role string) error
	DeleteBusinessUser(ctx context.Context, id int64) error
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	ListGroupTypes(ctx context.Context) ([]models.GroupType, error)
	GroupTypeExists(ctx context.Context, id int64) (bool, error)

	// CreateGroup persists the group, its creator as admin, and memberIDs
	// as regular members in one transaction.
	CreateGroup(ctx context.Context, g *models.Group, memberIDs []int64) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error

	// GetGroupUser returns the membership row or ErrNotFound.
	GetGroupUser(ctx context.Context, groupID, userID int64) (*models.GroupUser, error)

	// AddGroupUsers adds the users that are not yet members and returns
	// the ids actually added.
	AddGroupUsers(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error)
	// RemoveGroupUsers drops the memberships. If no admin is left, the
	// earliest remaining member becomes admin.
	RemoveGroupUsers(ctx context.Context, groupID int64, userIDs []int64) error

	// ListGroupMembers returns members in join order.
	ListGroupMembers(ctx context.Context, groupID int64) ([]models.User, error)
	ListGroupsForUser(ctx context.Context, userID int64, page Page) ([]models.Group, int, error)

	// GroupHasOutstandingSplits reports whether any split of the group's
	// bills is Pending or Declined.
	GroupHasOutstandingSplits(ctx context.Context, groupID int64) (bool, error)

	// UsersWithOutstandingSplits returns the subset of userIDs that are
	// payer or borrower of a Pending or Declined split in the group.
	UsersWithOutstandingSplits(ctx context.Context, groupID int64, userIDs []int64) ([]int64, error)
}

// BillStore persists bills and splits.
type BillStore interface {
	BillTypeByTitle(ctx context.Context, title string) (*models.BillType, error)
	BillTypeExists(ctx context.Context, id int64) (bool, error)

	// CreateBill persists the bill, its participants and its splits in one
	// transaction. IDs are populated on bill and every split.
	CreateBill(ctx context.Context, bill *models.Bill, participantIDs []int64, splits []*models.BillSplit) error
	GetBill(ctx context.Context, id int64) (*models.Bill, error)

	ListBillsByGroup(ctx context.Context, groupID int64, page Page) ([]models.Bill, int, error)
	ListBillsForGroups(ctx context.Context, groupIDs []int64) ([]models.Bill, error)

	// ListHostedBills returns bills paid by userID, newest first.
	ListHostedBills(ctx context.Context, userID, excludeTypeID int64, page Page) ([]models.Bill, int, error)

	// ListBorrowedBills returns bills where userID borrows but did not pay.
	ListBorrowedBills(ctx context.Context, userID, excludeTypeID int64, page Page) ([]models.Bill, int, error)

	// ListBillsBetween returns bills holding a split between a and b in
	// either direction, newest first.
	ListBillsBetween(ctx context.Context, a, b int64, page Page) ([]models.Bill, int, error)

	// BillAccessible reports whether the user paid, created, participates
	// in, or is a party to a split of the bill.
	BillAccessible(ctx context.Context, billID, userID int64) (bool, error)

	SplitsForBills(ctx context.Context, billIDs []int64) ([]models.BillSplit, error)
	SplitsForGroup(ctx context.Context, groupID int64) ([]models.BillSplit, error)
	SplitsForUser(ctx context.Context, userID int64) ([]models.BillSplit, error)
	GetBillSplit(ctx context.Context, id int64) (*models.BillSplit, error)

	// ListFriends returns active users sharing a group or a bill with userID.
	ListFriends(ctx context.Context, userID int64) ([]models.User, error)
}

// PaymentStore persists payment requests.
type PaymentStore interface {
	PaymentStatusExists(ctx context.Context, id int64) (bool, error)

	// ActivePaymentRequestExists reports whether the split already has a
	// request that has not been declined.
	ActivePaymentRequestExists(ctx context.Context, splitID int64) (bool, error)

	// CreatePaymentRequest persists the request and moves its split back
	// to Pending.
	CreatePaymentRequest(ctx context.Context, pr *models.PaymentRequest) error
	GetPaymentRequest(ctx context.Context, id int64) (*models.PaymentRequest, error)

	// ListPaymentRequests lists requests sent (from) or received (to) by
	// userID, newest first.
	ListPaymentRequests(ctx context.Context, userID int64, sent bool, page Page) ([]models.PaymentRequestRow, int, error)

	// AcceptPaymentRequest records the settlement bill and marks the
	// request and its split Paid in one transaction.
	AcceptPaymentRequest(ctx context.Context, pr *models.PaymentRequest, bill *models.Bill, split *models.BillSplit) error

	// RejectPaymentRequest marks the request and its split Declined.
	RejectPaymentRequest(ctx context.Context, pr *models.PaymentRequest) error
}

// Store is the full persistence surface used by the service layer.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	BusinessStore
	GroupStore
	BillStore
	PaymentStore

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
