package service

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// FriendService reports balances between the caller and the users they
// share groups or bills with.
type FriendService struct {
	base
}

// NewFriendService creates a FriendService.
func NewFriendService(b base) *FriendService {
	return &FriendService{base: b}
}

type remainingPaymentsRequest struct {
	Filter int `json:"filter" validate:"gte=0,max=3"`
	PageQuery
}

type friendHistoryRequest struct {
	ID int64 `json:"id" validate:"required"`
	PageQuery
}

// historyBill is one bill shared with a friend. Amount and Status cover
// only the splits between the caller and that friend.
type historyBill struct {
	BillID           int64             `json:"bill_id"`
	Title            string            `json:"title"`
	PaidBy           *models.UserBrief `json:"paid_by"`
	BillCreateDate   *string           `json:"bill_create_date"`
	CreatedAt        models.Timestamp  `json:"created_at"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	Amount           decimal.Decimal   `json:"amount"`
	DifferenceAmount decimal.Decimal   `json:"difference_amount"`
	Status           string            `json:"status"`
}

// pairStatus labels the splits between two users on one bill: the split's
// own status when there is one, otherwise Pending until all are paid.
func pairStatus(splits []models.BillSplit) string {
	if len(splits) == 1 {
		return splits[0].PaymentStatusID.String()
	}
	return calculator.BillStatus(splits)
}

// RemainingPayments lists each friend with the caller's outstanding
// difference, optionally narrowed to receive, pay or settled.
func (s *FriendService) RemainingPayments(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req remainingPaymentsRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	caller := userID(r)
	friends, err := s.store.ListFriends(ctx, caller)
	if err != nil {
		return err
	}
	splits, err := s.store.SplitsForUser(ctx, caller)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(friends))
	byID := make(map[int64]models.UserBrief, len(friends))
	for _, f := range friends {
		ids = append(ids, f.ID)
		byID[f.ID] = f.Brief()
	}

	balances := calculator.FilterBalances(
		calculator.FriendBalances(caller, ids, calculator.Outstanding(splits)),
		req.Filter,
	)

	out := make([]balanceView, 0, len(balances))
	for _, b := range balances {
		out = append(out, newBalanceView(byID[b.UserID], b.Difference))
	}

	items, total := response.PageSlice(out, req.page())
	if len(items) == 0 {
		response.NoData(w)
		return nil
	}
	response.List(w, r, s.opts.BaseURL, response.MsgDataFound, req.page(), total, items)
	return nil
}

// History lists the bills holding a split between the caller and a
// friend, newest first, with the net of each and of all of them.
func (s *FriendService) History(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req friendHistoryRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	friend, err := s.store.GetUserByID(ctx, req.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return validation.Errors{{Key: "id", Error: validation.Invalid("id")}}
	}
	if err != nil {
		return err
	}

	caller := userID(r)
	bills, total, err := s.store.ListBillsBetween(ctx, caller, friend.ID, req.page())
	if err != nil {
		return err
	}
	if len(bills) == 0 {
		response.NoData(w)
		return nil
	}
	splits, err := loadSplits(ctx, s.store, bills)
	if err != nil {
		return err
	}

	payers := make([]int64, 0, len(bills))
	for _, b := range bills {
		payers = append(payers, b.PaidBy)
	}
	users, err := briefs(ctx, s.store, payers)
	if err != nil {
		return err
	}

	out := make([]historyBill, 0, len(bills))
	for _, b := range bills {
		pair := calculator.Between(caller, friend.ID, splits[b.ID])
		out = append(out, historyBill{
			BillID:           b.ID,
			Title:            b.Title,
			PaidBy:           users[b.PaidBy],
			BillCreateDate:   b.BillCreateDate,
			CreatedAt:        b.CreatedAt,
			TotalAmount:      b.Amount,
			Amount:           calculator.Sum(pair),
			DifferenceAmount: calculator.Difference(caller, friend.ID, pair),
			Status:           pairStatus(pair),
		})
	}

	all, err := s.store.SplitsForUser(ctx, caller)
	if err != nil {
		return err
	}
	overall := calculator.Difference(caller, friend.ID, all)

	response.List(w, r, s.opts.BaseURL, response.MsgDataFound, req.page(), total, out,
		response.With("friend", newBalanceView(friend.Brief(), overall)))
	return nil
}
