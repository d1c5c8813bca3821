package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var phoneSeq int

func createUser(t *testing.T, store *Store, name string) *models.User {
	t.Helper()
	phoneSeq++
	user := models.NewUser(name, "Tester", name+"@example.com", fmt.Sprintf("98765%05d", phoneSeq), "hash")
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func split(paidBy, borrowBy int64, amount string, status models.PaymentStatus) *models.BillSplit {
	now := models.Now()
	return &models.BillSplit{
		PaidBy:          paidBy,
		BorrowBy:        borrowBy,
		Amount:          decimal.RequireFromString(amount),
		PaymentStatusID: status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func newBill(paidBy int64, amount string, groupID *int64) *models.Bill {
	now := models.Now()
	date := models.Today()
	return &models.Bill{
		GroupID:        groupID,
		BillTypeID:     1,
		Title:          "Dinner",
		Amount:         decimal.RequireFromString(amount),
		IsSplitEqually: true,
		PaidBy:         paidBy,
		CreatedBy:      paidBy,
		BillCreateDate: &date,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	t.Run("CreateUser assigns IDs", func(t *testing.T) {
		assert.NotZero(t, alice.ID)
		assert.NotEqual(t, alice.ID, bob.ID)
	})

	t.Run("GetUserByLogin matches email or phone", func(t *testing.T) {
		byEmail, err := store.GetUserByLogin(ctx, alice.Email)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)

		byPhone, err := store.GetUserByLogin(ctx, alice.Phone)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byPhone.ID)

		_, err = store.GetUserByLogin(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("uniqueness checks exclude the user itself", func(t *testing.T) {
		taken, err := store.EmailTaken(ctx, alice.Email, 0)
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = store.EmailTaken(ctx, alice.Email, alice.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		taken, err = store.PhoneTaken(ctx, bob.Phone, alice.ID)
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("UpdateUser persists profile fields", func(t *testing.T) {
		token := "fcm-1"
		bob.FirstName = "Robert"
		bob.FCMToken = &token
		require.NoError(t, store.UpdateUser(ctx, bob))

		got, err := store.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.FirstName)
		require.NotNil(t, got.FCMToken)
		assert.Equal(t, "fcm-1", *got.FCMToken)
	})

	t.Run("SoftDeleteUser hides the user from existence checks", func(t *testing.T) {
		carol := createUser(t, store, "carol")
		require.NoError(t, store.SoftDeleteUser(ctx, carol.ID))

		got, err := store.GetUserByID(ctx, carol.ID)
		require.NoError(t, err)
		assert.True(t, got.Deleted())

		ids, err := store.ExistingUserIDs(ctx, []int64{alice.ID, carol.ID, 9999})
		require.NoError(t, err)
		assert.Equal(t, []int64{alice.ID}, ids)

		assert.ErrorIs(t, store.SoftDeleteUser(ctx, carol.ID), storage.ErrNotFound)
	})

	t.Run("GetUsersByIDs omits unknown ids", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, []int64{alice.ID, bob.ID, 4242})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, alice.Email, users[alice.ID].Email)
	})

	t.Run("revoked tokens", func(t *testing.T) {
		revoked, err := store.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)

		expires := models.Timestamp(models.Now() + 3600)
		require.NoError(t, store.RevokeToken(ctx, "jti-1", expires))
		require.NoError(t, store.RevokeToken(ctx, "jti-1", expires))

		revoked, err = store.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestBusinessLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := createUser(t, store, "owner")
	staff := createUser(t, store, "staff")
	now := models.Now()

	business := &models.Business{UserID: owner.ID, BusinessName: "Corner Shop", Phone: "9999999999", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateBusiness(ctx, business))

	t.Run("CreateBusiness registers the owner role", func(t *testing.T) {
		ok, err := store.HasBusinessRole(ctx, business.ID, owner.ID, models.RoleOwner)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.HasBusinessAccess(ctx, business.ID, staff.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	customer := &models.Customer{BusinessID: business.ID, Name: "Dana", Phone: "8888888888",
		OpeningBalance: decimal.NewFromInt(50), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	for _, tx := range []struct {
		kind, amount, date string
	}{
		{models.TransactionIncome, "300", "2024-01-10"},
		{models.TransactionIncome, "200", "2024-02-10"},
		{models.TransactionExpense, "200", "2024-02-15"},
	} {
		require.NoError(t, store.CreateTransaction(ctx, &models.Transaction{
			BusinessID:      business.ID,
			CustomerID:      customer.ID,
			TransactionType: tx.kind,
			Amount:          decimal.RequireFromString(tx.amount),
			TransactionDate: tx.date,
			PaymentMode:     models.PaymentModeCash,
			CreatedAt:       now,
			UpdatedAt:       now,
		}))
	}

	t.Run("ListBusinesses aggregates transactions", func(t *testing.T) {
		rows, _, err := store.ListBusinesses(ctx, owner.ID, storage.Page{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].TotalIncome.Equal(decimal.NewFromInt(500)), "income %s", rows[0].TotalIncome)
		assert.True(t, rows[0].TotalExpense.Equal(decimal.NewFromInt(200)))
		assert.True(t, rows[0].NetBalance.Equal(decimal.NewFromInt(300)))
	})

	t.Run("ListCustomers computes current balance", func(t *testing.T) {
		rows, _, err := store.ListCustomers(ctx, business.ID, storage.Page{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].CurrentBalance.Equal(decimal.NewFromInt(350)), "balance %s", rows[0].CurrentBalance)
	})

	t.Run("transaction filters and totals", func(t *testing.T) {
		filter := storage.TransactionFilter{BusinessID: business.ID, FromDate: "2024-02-01", ToDate: "2024-02-28"}
		rows, total, err := store.ListTransactions(ctx, filter, storage.Page{Number: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "2024-02-15", rows[0].TransactionDate)

		totals, err := store.TransactionTotals(ctx, filter)
		require.NoError(t, err)
		assert.True(t, totals.TotalIncome.Equal(decimal.NewFromInt(200)))
		assert.True(t, totals.NetBalance.IsZero())

		filter.TransactionType = models.TransactionIncome
		totals, err = store.TransactionTotals(ctx, filter)
		require.NoError(t, err)
		assert.True(t, totals.TotalExpense.IsZero())
	})

	t.Run("business users", func(t *testing.T) {
		bu := &models.BusinessUser{BusinessID: business.ID, UserID: staff.ID, Role: models.RoleStaff, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.CreateBusinessUser(ctx, bu))

		ok, err := store.HasBusinessAccess(ctx, business.ID, staff.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		members, err := store.ListBusinessMembers(ctx, business.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, owner.Email, members[0].User.Email)
		assert.Equal(t, models.RoleStaff, members[1].Role)

		require.NoError(t, store.UpdateBusinessUserRole(ctx, bu.ID, models.RoleOwner))
		got, err := store.GetBusinessUser(ctx, bu.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleOwner, got.Role)

		rows, _, err := store.ListBusinesses(ctx, staff.ID, storage.Page{})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("DeleteBusiness cascades", func(t *testing.T) {
		require.NoError(t, store.DeleteBusiness(ctx, business.ID))
		_, err := store.GetCustomer(ctx, customer.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteBusiness(ctx, business.ID), storage.ErrNotFound)
	})
}

func TestGroupsAndBills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	carol := createUser(t, store, "carol")
	dave := createUser(t, store, "dave")
	now := models.Now()

	group := &models.Group{Name: "Flat", GroupTypeID: 1, CreatedBy: alice.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateGroup(ctx, group, []int64{alice.ID, bob.ID, carol.ID}))

	t.Run("creator is admin", func(t *testing.T) {
		gu, err := store.GetGroupUser(ctx, group.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, gu.IsAdmin)

		gu, err = store.GetGroupUser(ctx, group.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, gu.IsAdmin)

		_, err = store.GetGroupUser(ctx, group.ID, dave.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("AddGroupUsers skips existing members", func(t *testing.T) {
		added, err := store.AddGroupUsers(ctx, group.ID, []int64{bob.ID, dave.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{dave.ID}, added)

		members, err := store.ListGroupMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, members, 4)
	})

	bill := newBill(alice.ID, "120", &group.ID)
	splits := []*models.BillSplit{
		split(alice.ID, alice.ID, "40", models.StatusPaid),
		split(alice.ID, bob.ID, "40", models.StatusPending),
		split(alice.ID, carol.ID, "40", models.StatusPending),
	}
	require.NoError(t, store.CreateBill(ctx, bill, []int64{alice.ID, bob.ID, carol.ID}, splits))

	t.Run("CreateBill populates IDs", func(t *testing.T) {
		assert.NotZero(t, bill.ID)
		for _, s := range splits {
			assert.NotZero(t, s.ID)
			assert.Equal(t, bill.ID, s.BillID)
		}

		got, err := store.GetBill(ctx, bill.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.NewFromInt(120)))
		require.NotNil(t, got.GroupID)
		assert.Equal(t, group.ID, *got.GroupID)
	})

	t.Run("split queries", func(t *testing.T) {
		byBill, err := store.SplitsForBills(ctx, []int64{bill.ID})
		require.NoError(t, err)
		assert.Len(t, byBill, 3)

		byGroup, err := store.SplitsForGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, byGroup, 3)

		byUser, err := store.SplitsForUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Len(t, byUser, 1)
	})

	t.Run("outstanding checks", func(t *testing.T) {
		pending, err := store.GroupHasOutstandingSplits(ctx, group.ID)
		require.NoError(t, err)
		assert.True(t, pending)

		blocked, err := store.UsersWithOutstandingSplits(ctx, group.ID, []int64{bob.ID, dave.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{bob.ID}, blocked)

		has, err := store.UserHasOutstandingSplits(ctx, dave.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("bill listings", func(t *testing.T) {
		hosted, _, err := store.ListHostedBills(ctx, alice.ID, 2, storage.Page{})
		require.NoError(t, err)
		assert.Len(t, hosted, 1)

		borrowed, _, err := store.ListBorrowedBills(ctx, bob.ID, 2, storage.Page{})
		require.NoError(t, err)
		assert.Len(t, borrowed, 1)

		borrowed, _, err = store.ListBorrowedBills(ctx, alice.ID, 2, storage.Page{})
		require.NoError(t, err)
		assert.Empty(t, borrowed)

		between, total, err := store.ListBillsBetween(ctx, bob.ID, alice.ID, storage.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, between, 1)

		groups, total, err := store.ListGroupsForUser(ctx, dave.ID, storage.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, groups, 1)
	})

	t.Run("access and friends", func(t *testing.T) {
		ok, err := store.BillAccessible(ctx, bill.ID, carol.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.BillAccessible(ctx, bill.ID, dave.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		friends, err := store.ListFriends(ctx, bob.ID)
		require.NoError(t, err)
		ids := make([]int64, 0, len(friends))
		for _, f := range friends {
			ids = append(ids, f.ID)
		}
		assert.Equal(t, []int64{alice.ID, carol.ID, dave.ID}, ids)
	})

	t.Run("RemoveGroupUsers", func(t *testing.T) {
		require.NoError(t, store.RemoveGroupUsers(ctx, group.ID, []int64{dave.ID}))
		_, err := store.GetGroupUser(ctx, group.ID, dave.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("RemoveGroupUsers promotes when the last admin goes", func(t *testing.T) {
		g := &models.Group{Name: "Trip", GroupTypeID: 1, CreatedBy: alice.ID, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.CreateGroup(ctx, g, []int64{bob.ID, carol.ID}))

		require.NoError(t, store.RemoveGroupUsers(ctx, g.ID, []int64{alice.ID}))

		gu, err := store.GetGroupUser(ctx, g.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, gu.IsAdmin)
		gu, err = store.GetGroupUser(ctx, g.ID, carol.ID)
		require.NoError(t, err)
		assert.False(t, gu.IsAdmin)

		require.NoError(t, store.RemoveGroupUsers(ctx, g.ID, []int64{carol.ID}))
		gu, err = store.GetGroupUser(ctx, g.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, gu.IsAdmin)
	})

	t.Run("payment request accept flow", func(t *testing.T) {
		bobSplit := splits[1]
		pr := &models.PaymentRequest{
			BillSplitID:     bobSplit.ID,
			FromUserID:      bob.ID,
			ToUserID:        alice.ID,
			Amount:          bobSplit.Amount,
			PaymentStatusID: models.StatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		require.NoError(t, store.CreatePaymentRequest(ctx, pr))

		active, err := store.ActivePaymentRequestExists(ctx, bobSplit.ID)
		require.NoError(t, err)
		assert.True(t, active)

		received, total, err := store.ListPaymentRequests(ctx, alice.ID, false, storage.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, received, 1)
		assert.Equal(t, "Dinner", received[0].Title)
		assert.Equal(t, bobSplit.ID, received[0].Split.ID)

		sent, _, err := store.ListPaymentRequests(ctx, alice.ID, true, storage.Page{})
		require.NoError(t, err)
		assert.Empty(t, sent)

		bt, err := store.BillTypeByTitle(ctx, models.BillTypePaymentTransaction)
		require.NoError(t, err)
		settlement := newBill(bob.ID, "40", nil)
		settlement.BillTypeID = bt.ID
		require.NoError(t, store.AcceptPaymentRequest(ctx, pr, settlement, split(bob.ID, alice.ID, "40", models.StatusPaid)))

		got, err := store.GetBillSplit(ctx, bobSplit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, got.PaymentStatusID)

		again, err := store.GetPaymentRequest(ctx, pr.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, again.PaymentStatusID)

		err = store.AcceptPaymentRequest(ctx, pr, newBill(bob.ID, "40", nil), split(bob.ID, alice.ID, "40", models.StatusPaid))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		hosted, _, err := store.ListHostedBills(ctx, bob.ID, bt.ID, storage.Page{})
		require.NoError(t, err)
		assert.Empty(t, hosted)
	})

	t.Run("payment request reject flow", func(t *testing.T) {
		carolSplit := splits[2]
		pr := &models.PaymentRequest{
			BillSplitID: carolSplit.ID, FromUserID: carol.ID, ToUserID: alice.ID,
			Amount: carolSplit.Amount, PaymentStatusID: models.StatusPending, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, store.CreatePaymentRequest(ctx, pr))
		require.NoError(t, store.RejectPaymentRequest(ctx, pr))

		got, err := store.GetBillSplit(ctx, carolSplit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, got.PaymentStatusID)

		active, err := store.ActivePaymentRequestExists(ctx, carolSplit.ID)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("DeleteGroup keeps bills", func(t *testing.T) {
		require.NoError(t, store.DeleteGroup(ctx, group.ID))
		got, err := store.GetBill(ctx, bill.ID)
		require.NoError(t, err)
		assert.Nil(t, got.GroupID)
	})
}

func TestSeeds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	types, err := store.ListGroupTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 4)
	assert.Equal(t, "Home", types[0].Title)

	for id, want := range map[int64]bool{1: true, 3: true, 4: false} {
		ok, err := store.PaymentStatusExists(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "status %d", id)
	}

	ok, err := store.BillTypeExists(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.BillTypeByTitle(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
