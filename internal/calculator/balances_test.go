package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func split(paidBy, borrowBy int64, amount string, status models.PaymentStatus) models.BillSplit {
	return models.BillSplit{
		PaidBy:          paidBy,
		BorrowBy:        borrowBy,
		Amount:          dec(amount),
		PaymentStatusID: status,
	}
}

func TestDifference(t *testing.T) {
	splits := []models.BillSplit{
		split(1, 2, "40", models.StatusPending),
		split(1, 1, "40", models.StatusPaid),
		split(2, 1, "15", models.StatusPending),
		split(3, 1, "99", models.StatusPending),
	}

	tests := []struct {
		name        string
		subject     int64
		counterpart int64
		want        string
	}{
		{"subject lent more than borrowed", 1, 2, "25"},
		{"mirror image is negated", 2, 1, "-25"},
		{"self splits net to zero", 1, 1, "0"},
		{"unrelated pair", 2, 3, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Difference(tt.subject, tt.counterpart, splits)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestBetween(t *testing.T) {
	splits := []models.BillSplit{
		split(1, 2, "40", models.StatusPending),
		split(1, 1, "40", models.StatusPaid),
		split(2, 1, "15", models.StatusPaid),
		split(3, 1, "99", models.StatusPending),
	}

	got := Between(1, 2, splits)
	require.Len(t, got, 2)
	assert.True(t, Sum(got).Equal(dec("55")))
	assert.Equal(t, got, Between(2, 1, splits))
	assert.Empty(t, Between(1, 1, splits[2:]))
	assert.Empty(t, Between(2, 3, splits))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, LabelReceive, StatusLabel(dec("0.01")))
	assert.Equal(t, LabelPay, StatusLabel(dec("-5")))
	assert.Equal(t, LabelSettled, StatusLabel(decimal.Zero))
}

func TestFriendBalances(t *testing.T) {
	splits := []models.BillSplit{
		split(1, 2, "40", models.StatusPending),
		split(1, 1, "40", models.StatusPaid),
		split(3, 1, "10", models.StatusDeclined),
		split(2, 3, "7", models.StatusPending),
	}

	got := FriendBalances(1, []int64{2, 3, 4}, splits)

	assert.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].UserID)
	assert.True(t, got[0].Difference.Equal(dec("40")))
	assert.Equal(t, int64(3), got[1].UserID)
	assert.True(t, got[1].Difference.Equal(dec("-10")))
	assert.Equal(t, int64(4), got[2].UserID)
	assert.True(t, got[2].Difference.IsZero())
}

func TestMemberBalances(t *testing.T) {
	splits := []models.BillSplit{
		split(1, 1, "40", models.StatusPaid),
		split(1, 2, "40", models.StatusPending),
		split(1, 3, "40", models.StatusPending),
		split(2, 3, "5", models.StatusPending),
	}

	got := MemberBalances([]int64{1, 2, 3}, splits)

	want := []struct{ received, paid, remaining string }{
		{"120", "40", "80"},
		{"5", "40", "-35"},
		{"0", "45", "-45"},
	}
	for i, w := range want {
		assert.True(t, got[i].Received.Equal(dec(w.received)), "member %d received %s", i, got[i].Received)
		assert.True(t, got[i].Paid.Equal(dec(w.paid)), "member %d paid %s", i, got[i].Paid)
		assert.True(t, got[i].Remaining.Equal(dec(w.remaining)), "member %d remaining %s", i, got[i].Remaining)
	}
}

func TestFilterBalances(t *testing.T) {
	balances := []FriendBalance{
		{UserID: 1, Difference: dec("10")},
		{UserID: 2, Difference: dec("-3")},
		{UserID: 3, Difference: decimal.Zero},
	}

	ids := func(bs []FriendBalance) []int64 {
		out := make([]int64, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.UserID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3}, ids(FilterBalances(balances, FilterAll)))
	assert.Equal(t, []int64{1}, ids(FilterBalances(balances, FilterReceive)))
	assert.Equal(t, []int64{2}, ids(FilterBalances(balances, FilterPay)))
	assert.Equal(t, []int64{3}, ids(FilterBalances(balances, FilterSettled)))
}

func TestBillStatus(t *testing.T) {
	tests := []struct {
		name   string
		splits []models.BillSplit
		want   string
	}{
		{"no splits", nil, BillPaid},
		{"all paid", []models.BillSplit{split(1, 1, "5", models.StatusPaid), split(1, 2, "5", models.StatusPaid)}, BillPaid},
		{"one pending", []models.BillSplit{split(1, 1, "5", models.StatusPaid), split(1, 2, "5", models.StatusPending)}, BillPending},
		{"declined counts as pending", []models.BillSplit{split(1, 2, "5", models.StatusDeclined)}, BillPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BillStatus(tt.splits))
		})
	}
}

func TestPendingAmount(t *testing.T) {
	splits := []models.BillSplit{
		split(1, 1, "40", models.StatusPaid),
		split(1, 2, "40", models.StatusPending),
		split(1, 3, "25.5", models.StatusDeclined),
	}
	assert.True(t, PendingAmount(splits).Equal(dec("65.5")))
	assert.Equal(t, 2, PendingCount(splits))
	assert.True(t, Sum(splits).Equal(dec("105.5")))
	assert.Len(t, Outstanding(splits), 2)
}
