package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Balance status labels.
const (
	LabelReceive = "You will receive"
	LabelPay     = "You need to pay"
	LabelSettled = "Settled"
)

// Bill status labels.
const (
	BillPending = "Pending"
	BillPaid    = "Paid"
)

// Balance filters accepted by the friend list.
const (
	FilterAll = iota
	FilterReceive
	FilterPay
	FilterSettled
)

// FriendBalance is the net position of the subject user against one friend.
// Positive means the friend owes the subject.
type FriendBalance struct {
	UserID     int64
	Difference decimal.Decimal
}

// MemberBalance is one group member's position across the group's splits.
type MemberBalance struct {
	UserID    int64
	Received  decimal.Decimal // owed to the member (member is paid_by)
	Paid      decimal.Decimal // owed by the member (member is borrow_by)
	Remaining decimal.Decimal // Received - Paid
}

// StatusLabel maps a signed amount to its display label.
func StatusLabel(amount decimal.Decimal) string {
	switch amount.Sign() {
	case 1:
		return LabelReceive
	case -1:
		return LabelPay
	default:
		return LabelSettled
	}
}

// Outstanding returns the splits that are not Paid.
func Outstanding(splits []models.BillSplit) []models.BillSplit {
	var out []models.BillSplit
	for _, s := range splits {
		if s.PaymentStatusID != models.StatusPaid {
			out = append(out, s)
		}
	}
	return out
}

// Difference computes subject's net position against counterpart:
// +amount where subject paid and counterpart borrowed, -amount for the
// reverse. When subject == counterpart every self-split adds and subtracts
// the same amount, so the result is zero.
func Difference(subject, counterpart int64, splits []models.BillSplit) decimal.Decimal {
	diff := decimal.Zero
	for _, s := range splits {
		if s.PaidBy == subject && s.BorrowBy == counterpart {
			diff = diff.Add(s.Amount)
		}
		if s.BorrowBy == subject && s.PaidBy == counterpart {
			diff = diff.Sub(s.Amount)
		}
	}
	return diff
}

// Between returns the splits where one of a and b paid and the other
// borrowed.
func Between(a, b int64, splits []models.BillSplit) []models.BillSplit {
	var out []models.BillSplit
	for _, s := range splits {
		if (s.PaidBy == a && s.BorrowBy == b) || (s.PaidBy == b && s.BorrowBy == a) {
			out = append(out, s)
		}
	}
	return out
}

// FriendBalances computes the difference between subject and each friend,
// preserving the order of friendIDs.
func FriendBalances(subject int64, friendIDs []int64, splits []models.BillSplit) []FriendBalance {
	// Index by counterpart in one pass instead of scanning splits per friend.
	diffs := make(map[int64]decimal.Decimal, len(friendIDs))
	for _, s := range splits {
		if s.SelfSplit() {
			continue
		}
		if s.PaidBy == subject {
			diffs[s.BorrowBy] = diffs[s.BorrowBy].Add(s.Amount)
		}
		if s.BorrowBy == subject {
			diffs[s.PaidBy] = diffs[s.PaidBy].Sub(s.Amount)
		}
	}

	balances := make([]FriendBalance, 0, len(friendIDs))
	for _, id := range friendIDs {
		balances = append(balances, FriendBalance{UserID: id, Difference: diffs[id]})
	}
	return balances
}

// MemberBalances computes received/paid totals for each member. Self-splits
// count on both sides and cancel out in Remaining.
func MemberBalances(memberIDs []int64, splits []models.BillSplit) []MemberBalance {
	received := make(map[int64]decimal.Decimal, len(memberIDs))
	paid := make(map[int64]decimal.Decimal, len(memberIDs))
	for _, s := range splits {
		received[s.PaidBy] = received[s.PaidBy].Add(s.Amount)
		paid[s.BorrowBy] = paid[s.BorrowBy].Add(s.Amount)
	}

	balances := make([]MemberBalance, 0, len(memberIDs))
	for _, id := range memberIDs {
		balances = append(balances, MemberBalance{
			UserID:    id,
			Received:  received[id],
			Paid:      paid[id],
			Remaining: received[id].Sub(paid[id]),
		})
	}
	return balances
}

// FilterBalances keeps the balances matching filter. FilterAll and unknown
// filters return the input unchanged.
func FilterBalances(balances []FriendBalance, filter int) []FriendBalance {
	if filter <= FilterAll || filter > FilterSettled {
		return balances
	}
	out := make([]FriendBalance, 0, len(balances))
	for _, b := range balances {
		if filter == FilterReceive && b.Difference.IsPositive() ||
			filter == FilterPay && b.Difference.IsNegative() ||
			filter == FilterSettled && b.Difference.IsZero() {
			out = append(out, b)
		}
	}
	return out
}

// BillStatus rolls up a bill's splits: Pending if any split is Pending or
// Declined, otherwise Paid.
func BillStatus(splits []models.BillSplit) string {
	for _, s := range splits {
		if s.PaymentStatusID.Outstanding() {
			return BillPending
		}
	}
	return BillPaid
}

// PendingAmount sums the splits that are not Paid.
func PendingAmount(splits []models.BillSplit) decimal.Decimal {
	total := decimal.Zero
	for _, s := range Outstanding(splits) {
		total = total.Add(s.Amount)
	}
	return total
}

// PendingCount counts the splits that are not Paid.
func PendingCount(splits []models.BillSplit) int {
	return len(Outstanding(splits))
}

// Sum adds up the amounts of splits.
func Sum(splits []models.BillSplit) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}
