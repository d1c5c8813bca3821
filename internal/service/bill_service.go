package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// BillService records bills and reports them per group, payer and friend.
type BillService struct {
	base
}

// NewBillService creates a BillService.
func NewBillService(b base) *BillService {
	return &BillService{base: b}
}

// FriendShare is one borrower of a bill. Amount is required for custom
// splits and ignored for equal ones.
type FriendShare struct {
	UserID int64            `json:"user_id" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gte=0,money"`
}

type addBillRequest struct {
	Title          string          `json:"title" validate:"required,max=255"`
	Amount         decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
	PaidBy         int64           `json:"paid_by" validate:"required"`
	IsSplitEqually *bool           `json:"is_split_equally" validate:"required"`
	Friends        []FriendShare   `json:"friends" validate:"required,min=1,dive"`
	GroupID        *int64          `json:"group_id"`
	BillTypeID     *int64          `json:"bill_type_id"`
	Notes          *string         `json:"notes"`
	Address        *string         `json:"address"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	BillCreateDate *string         `json:"bill_create_date" validate:"omitempty,billdate"`
}

type billsByGroupRequest struct {
	GroupID int64 `json:"group_id" validate:"required"`
	PageQuery
}

type billDetailsRequest struct {
	BillID int64 `json:"bill_id" validate:"required"`
}

// hostedBill is a bill the caller paid for.
type hostedBill struct {
	billView
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalUsers        int             `json:"total_users"`
	TotalPendingCount int             `json:"total_pending_count"`
}

// borrowedBill is a bill the caller owes on.
type borrowedBill struct {
	billView
	PaidByUser    *models.UserBrief `json:"paid_by_user"`
	CreatedByUser *models.UserBrief `json:"created_by_user"`
}

// detailSplit is a split with the borrower expanded.
type detailSplit struct {
	splitView
	BorrowByUser *models.UserBrief `json:"borrow_by_user"`
}

type billDetail struct {
	models.Bill
	Status              string            `json:"status"`
	PaidByUser          *models.UserBrief `json:"paid_by_user"`
	CreatedByUser       *models.UserBrief `json:"created_by_user"`
	TotalReceivedAmount decimal.Decimal   `json:"total_received_amount"`
	BillSplits          []detailSplit     `json:"bill_splits"`
}

// Add records a bill and splits it among friends, equally or by the given
// amounts. The payer's own share is recorded as Paid.
func (s *BillService) Add(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req addBillRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	var errs validation.Errors
	if err := s.checkBillInput(ctx, &req, &errs); err != nil {
		return err
	}
	if !errs.Empty() {
		return errs
	}

	if req.GroupID != nil {
		if _, _, err := requireMember(r, s.store, *req.GroupID); err != nil {
			return err
		}
	}

	billTypeID, err := s.billTypeID(ctx, req.BillTypeID)
	if err != nil {
		return err
	}

	shares, err := s.shares(&req)
	if err != nil {
		return err
	}

	createDate := models.Today()
	if req.BillCreateDate != nil && *req.BillCreateDate != "" {
		createDate, _ = validation.ParseBillDate(*req.BillCreateDate)
	}

	now := models.Now()
	bill := &models.Bill{
		GroupID:        req.GroupID,
		BillTypeID:     billTypeID,
		Title:          req.Title,
		Amount:         req.Amount,
		IsSplitEqually: *req.IsSplitEqually,
		PaidBy:         req.PaidBy,
		CreatedBy:      userID(r),
		Notes:          req.Notes,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		BillCreateDate: &createDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	participants := []int64{req.PaidBy}
	splits := make([]*models.BillSplit, 0, len(req.Friends))
	for i, f := range req.Friends {
		participants = append(participants, f.UserID)
		split := &models.BillSplit{
			PaidBy:          req.PaidBy,
			BorrowBy:        f.UserID,
			Amount:          shares[i],
			PaymentStatusID: models.StatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if split.SelfSplit() {
			split.PaymentStatusID = models.StatusPaid
		}
		splits = append(splits, split)
	}

	if err := s.store.CreateBill(ctx, bill, unique(participants), splits); err != nil {
		return err
	}

	slog.Info("Bill added", "bill_id", bill.ID, "amount", bill.Amount, "splits", len(splits))

	stored := make([]models.BillSplit, 0, len(splits))
	for _, sp := range splits {
		stored = append(stored, *sp)
	}
	response.Success(w, msgBillAdded, newBillView(*bill, stored))
	return nil
}

// checkBillInput validates the references of an add-bill request.
func (s *BillService) checkBillInput(ctx context.Context, req *addBillRequest, errs *validation.Errors) error {
	refs := make([]UserRef, 0, len(req.Friends))
	seen := make(map[int64]bool, len(req.Friends))
	for i, f := range req.Friends {
		refs = append(refs, UserRef{UserID: f.UserID})
		if seen[f.UserID] {
			k := fmt.Sprintf("friends.%d.user_id", i)
			errs.Add(k, "The "+k+" field has a duplicate value.")
		}
		seen[f.UserID] = true
		if !*req.IsSplitEqually && f.Amount == nil {
			k := fmt.Sprintf("friends.%d.amount", i)
			errs.Add(k, validation.Required(k))
		}
	}
	if err := checkUsers(ctx, s.store, "friends", refs, errs); err != nil {
		return err
	}

	payer, err := s.store.ExistingUserIDs(ctx, []int64{req.PaidBy})
	if err != nil {
		return err
	}
	if len(payer) == 0 {
		errs.Add("paid_by", validation.Invalid("paid_by"))
	}

	if req.BillTypeID != nil {
		ok, err := s.store.BillTypeExists(ctx, *req.BillTypeID)
		if err != nil {
			return err
		}
		if !ok {
			errs.Add("bill_type_id", validation.Invalid("bill_type_id"))
		}
	}
	return nil
}

// billTypeID returns the requested type or the default one.
func (s *BillService) billTypeID(ctx context.Context, requested *int64) (int64, error) {
	if requested != nil {
		return *requested, nil
	}
	bt, err := s.store.BillTypeByTitle(ctx, models.BillTypeDefault)
	if err != nil {
		return 0, err
	}
	return bt.ID, nil
}

// shares returns each friend's amount in request order.
func (s *BillService) shares(req *addBillRequest) ([]decimal.Decimal, error) {
	if *req.IsSplitEqually {
		return calculator.EqualShares(req.Amount, len(req.Friends))
	}
	amounts := make([]decimal.Decimal, 0, len(req.Friends))
	for _, f := range req.Friends {
		amounts = append(amounts, *f.Amount)
	}
	if err := calculator.ValidateCustomSplit(req.Amount, amounts); err != nil {
		return nil, err
	}
	return amounts, nil
}

// ListByGroup lists a group's bills, newest first, with the caller's
// outstanding balance in the group.
func (s *BillService) ListByGroup(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req billsByGroupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	g, _, err := requireMember(r, s.store, req.GroupID)
	if err != nil {
		return err
	}

	bills, total, err := s.store.ListBillsByGroup(ctx, g.ID, req.page())
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

	groupSplits, err := s.store.SplitsForGroup(ctx, g.ID)
	if err != nil {
		return err
	}
	caller := userID(r)
	balance := calculator.MemberBalances([]int64{caller}, calculator.Outstanding(groupSplits))[0].Remaining

	out := make([]billView, 0, len(bills))
	for _, b := range bills {
		out = append(out, newBillView(b, splits[b.ID]))
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out,
		response.With("group_balance", balance))
	return nil
}

// Hosted lists the bills the caller paid, settlements excluded.
func (s *BillService) Hosted(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req PageQuery
	if err := s.bind(r, &req); err != nil {
		return err
	}

	exclude, err := s.settlementTypeID(ctx)
	if err != nil {
		return err
	}
	bills, total, err := s.store.ListHostedBills(ctx, userID(r), exclude, req.page())
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

	out := make([]hostedBill, 0, len(bills))
	for _, b := range bills {
		bs := splits[b.ID]
		out = append(out, hostedBill{
			billView:          newBillView(b, bs),
			TotalAmount:       calculator.Sum(bs),
			TotalUsers:        len(bs),
			TotalPendingCount: calculator.PendingCount(bs),
		})
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out)
	return nil
}

// ByFriend lists the bills the caller borrows on but did not pay,
// settlements excluded.
func (s *BillService) ByFriend(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req PageQuery
	if err := s.bind(r, &req); err != nil {
		return err
	}

	exclude, err := s.settlementTypeID(ctx)
	if err != nil {
		return err
	}
	bills, total, err := s.store.ListBorrowedBills(ctx, userID(r), exclude, req.page())
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

	var ids []int64
	for _, b := range bills {
		ids = append(ids, b.PaidBy, b.CreatedBy)
	}
	users, err := briefs(ctx, s.store, ids)
	if err != nil {
		return err
	}

	out := make([]borrowedBill, 0, len(bills))
	for _, b := range bills {
		out = append(out, borrowedBill{
			billView:      newBillView(b, splits[b.ID]),
			PaidByUser:    users[b.PaidBy],
			CreatedByUser: users[b.CreatedBy],
		})
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out)
	return nil
}

// Details returns one bill with every split and party expanded. The caller
// must be a party to the bill.
func (s *BillService) Details(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req billDetailsRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	bill, err := s.store.GetBill(ctx, req.BillID)
	if errors.Is(err, storage.ErrNotFound) {
		return errNoData
	}
	if err != nil {
		return err
	}
	ok, err := s.store.BillAccessible(ctx, bill.ID, userID(r))
	if err != nil {
		return err
	}
	if !ok {
		return errNoData
	}

	splits, err := s.store.SplitsForBills(ctx, []int64{bill.ID})
	if err != nil {
		return err
	}

	ids := []int64{bill.PaidBy, bill.CreatedBy}
	for _, sp := range splits {
		ids = append(ids, sp.BorrowBy)
	}
	users, err := briefs(ctx, s.store, ids)
	if err != nil {
		return err
	}

	detail := billDetail{
		Bill:                *bill,
		Status:              calculator.BillStatus(splits),
		PaidByUser:          users[bill.PaidBy],
		CreatedByUser:       users[bill.CreatedBy],
		TotalReceivedAmount: decimal.Zero,
		BillSplits:          make([]detailSplit, 0, len(splits)),
	}
	for _, sp := range splits {
		if sp.PaymentStatusID == models.StatusPaid && sp.PaidBy == bill.PaidBy && !sp.SelfSplit() {
			detail.TotalReceivedAmount = detail.TotalReceivedAmount.Add(sp.Amount)
		}
		detail.BillSplits = append(detail.BillSplits, detailSplit{
			splitView:    newSplitView(sp),
			BorrowByUser: users[sp.BorrowBy],
		})
	}

	response.Success(w, response.MsgDataFound, detail)
	return nil
}

// settlementTypeID is the id of the payment_transaction bill type, or 0
// when it is not seeded.
func (s *BillService) settlementTypeID(ctx context.Context) (int64, error) {
	bt, err := s.store.BillTypeByTitle(ctx, models.BillTypePaymentTransaction)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bt.ID, nil
}
