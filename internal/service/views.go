package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// splitView is a bill split with its status label.
type splitView struct {
	models.BillSplit
	Status string `json:"status"`
}

func newSplitView(s models.BillSplit) splitView {
	return splitView{BillSplit: s, Status: s.PaymentStatusID.String()}
}

// billView is a bill with its rolled-up status and its splits.
type billView struct {
	models.Bill
	Status     string      `json:"status"`
	BillSplits []splitView `json:"bill_splits"`
}

func newBillView(b models.Bill, splits []models.BillSplit) billView {
	v := billView{
		Bill:       b,
		Status:     calculator.BillStatus(splits),
		BillSplits: make([]splitView, 0, len(splits)),
	}
	for _, s := range splits {
		v.BillSplits = append(v.BillSplits, newSplitView(s))
	}
	return v
}

// splitsByBill groups splits under their bill id.
func splitsByBill(splits []models.BillSplit) map[int64][]models.BillSplit {
	out := make(map[int64][]models.BillSplit)
	for _, s := range splits {
		out[s.BillID] = append(out[s.BillID], s)
	}
	return out
}

func billIDs(bills []models.Bill) []int64 {
	ids := make([]int64, 0, len(bills))
	for _, b := range bills {
		ids = append(ids, b.ID)
	}
	return ids
}

// loadSplits fetches the splits of bills keyed by bill id.
func loadSplits(ctx context.Context, store storage.BillStore, bills []models.Bill) (map[int64][]models.BillSplit, error) {
	if len(bills) == 0 {
		return map[int64][]models.BillSplit{}, nil
	}
	splits, err := store.SplitsForBills(ctx, billIDs(bills))
	if err != nil {
		return nil, err
	}
	return splitsByBill(splits), nil
}

// briefs loads the public projection of users keyed by id.
func briefs(ctx context.Context, store storage.UserStore, ids []int64) (map[int64]*models.UserBrief, error) {
	out := make(map[int64]*models.UserBrief, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := store.GetUsersByIDs(ctx, unique(ids))
	if err != nil {
		return nil, err
	}
	for id, u := range users {
		b := u.Brief()
		out[id] = &b
	}
	return out, nil
}

// balanceView is a user's signed position with its label.
type balanceView struct {
	models.UserBrief
	DifferenceAmount decimal.Decimal `json:"difference_amount"`
	Status           string          `json:"status"`
}

func newBalanceView(u models.UserBrief, diff decimal.Decimal) balanceView {
	return balanceView{UserBrief: u, DifferenceAmount: diff, Status: calculator.StatusLabel(diff)}
}
