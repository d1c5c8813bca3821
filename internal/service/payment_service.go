package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// PaymentService moves bill splits through payment requests.
type PaymentService struct {
	base
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(b base) *PaymentService {
	return &PaymentService{base: b}
}

type paymentRequestInput struct {
	PaymentStatusID int64           `json:"payment_status_id" validate:"required"`
	BillSplitID     int64           `json:"bill_split_id" validate:"required"`
	FromUserID      int64           `json:"from_user_id" validate:"required"`
	ToUserID        int64           `json:"to_user_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
}

type paymentRequestID struct {
	ID int64 `json:"id" validate:"required"`
}

// sentRequest is a request as its sender sees it, with the receiver
// expanded in place of to_user_id.
type sentRequest struct {
	models.PaymentRequest
	ToUserID  *models.UserBrief `json:"to_user_id"`
	Title     string            `json:"title"`
	BillSplit splitView         `json:"bill_split"`
}

// receivedRequest is a request as its receiver sees it, with the sender
// expanded in place of from_user_id.
type receivedRequest struct {
	models.PaymentRequest
	FromUserID *models.UserBrief `json:"from_user_id"`
	Title      string            `json:"title"`
	BillSplit  splitView         `json:"bill_split"`
}

// Request asks the payer of a split to confirm that the caller paid it.
func (s *PaymentService) Request(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req paymentRequestInput
	if err := s.bind(r, &req); err != nil {
		return err
	}

	var errs validation.Errors
	ok, err := s.store.PaymentStatusExists(ctx, req.PaymentStatusID)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add("payment_status_id", validation.Invalid("payment_status_id"))
	}
	split, err := s.store.GetBillSplit(ctx, req.BillSplitID)
	if errors.Is(err, storage.ErrNotFound) {
		errs.Add("bill_split_id", validation.Invalid("bill_split_id"))
	} else if err != nil {
		return err
	}
	if split != nil {
		if req.FromUserID != split.BorrowBy || split.SelfSplit() {
			errs.Add("from_user_id", validation.Invalid("from_user_id"))
		}
		if req.ToUserID != split.PaidBy {
			errs.Add("to_user_id", validation.Invalid("to_user_id"))
		}
	}
	if !errs.Empty() {
		return errs
	}

	if req.FromUserID != userID(r) {
		return fail(response.MsgUnauthorised)
	}

	active, err := s.store.ActivePaymentRequestExists(ctx, split.ID)
	if err != nil {
		return err
	}
	if active {
		return fail(msgRequestExists)
	}

	now := models.Now()
	pr := &models.PaymentRequest{
		BillSplitID:     split.ID,
		FromUserID:      req.FromUserID,
		ToUserID:        req.ToUserID,
		Amount:          req.Amount,
		PaymentStatusID: models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreatePaymentRequest(ctx, pr); err != nil {
		return err
	}

	slog.Info("Payment requested", "payment_request_id", pr.ID, "bill_split_id", split.ID)
	response.Success(w, response.MsgAdded, pr)
	return nil
}

// SenderList lists the requests the caller sent.
func (s *PaymentService) SenderList(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req PageQuery
	if err := s.bind(r, &req); err != nil {
		return err
	}

	rows, total, err := s.store.ListPaymentRequests(ctx, userID(r), true, req.page())
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ToUserID)
	}
	users, err := briefs(ctx, s.store, ids)
	if err != nil {
		return err
	}

	out := make([]sentRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, sentRequest{
			PaymentRequest: row.PaymentRequest,
			ToUserID:       users[row.ToUserID],
			Title:          row.Title,
			BillSplit:      newSplitView(row.Split),
		})
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out)
	return nil
}

// ReceiverList lists the requests sent to the caller.
func (s *PaymentService) ReceiverList(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req PageQuery
	if err := s.bind(r, &req); err != nil {
		return err
	}

	rows, total, err := s.store.ListPaymentRequests(ctx, userID(r), false, req.page())
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.FromUserID)
	}
	users, err := briefs(ctx, s.store, ids)
	if err != nil {
		return err
	}

	out := make([]receivedRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, receivedRequest{
			PaymentRequest: row.PaymentRequest,
			FromUserID:     users[row.FromUserID],
			Title:          row.Title,
			BillSplit:      newSplitView(row.Split),
		})
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out)
	return nil
}

// Accept confirms a pending request addressed to the caller. The payment
// is recorded as a payment_transaction bill paid by the requester and
// borrowed by the caller, and the original split becomes Paid.
func (s *PaymentService) Accept(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	pr, err := s.pendingForCaller(r)
	if err != nil {
		return err
	}

	bt, err := s.store.BillTypeByTitle(ctx, models.BillTypePaymentTransaction)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(msgBillTypeMissing)
	}
	if err != nil {
		return err
	}

	original, err := s.store.GetBillSplit(ctx, pr.BillSplitID)
	if err != nil {
		return err
	}
	source, err := s.store.GetBill(ctx, original.BillID)
	if err != nil {
		return err
	}

	now := models.Now()
	today := models.Today()
	bill := &models.Bill{
		BillTypeID:     bt.ID,
		Title:          source.Title,
		Amount:         pr.Amount,
		PaidBy:         pr.FromUserID,
		CreatedBy:      userID(r),
		BillCreateDate: &today,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	split := &models.BillSplit{
		PaidBy:          pr.FromUserID,
		BorrowBy:        pr.ToUserID,
		Amount:          pr.Amount,
		PaymentStatusID: models.StatusPaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.AcceptPaymentRequest(ctx, pr, bill, split); err != nil {
		return err
	}

	slog.Info("Payment accepted", "payment_request_id", pr.ID, "bill_id", bill.ID)
	response.Success(w, msgPaymentAccepted, newBillView(*bill, []models.BillSplit{*split}))
	return nil
}

// Reject declines a pending request addressed to the caller. The split
// becomes Declined and may be requested again.
func (s *PaymentService) Reject(w http.ResponseWriter, r *http.Request) error {
	pr, err := s.pendingForCaller(r)
	if err != nil {
		return err
	}
	if err := s.store.RejectPaymentRequest(r.Context(), pr); err != nil {
		return err
	}

	slog.Info("Payment rejected", "payment_request_id", pr.ID)
	response.Success(w, msgPaymentRejected, pr)
	return nil
}

// pendingForCaller loads the request named in the body. Only its receiver
// may act on it, and only while it is Pending.
func (s *PaymentService) pendingForCaller(r *http.Request) (*models.PaymentRequest, error) {
	var req paymentRequestID
	if err := s.bind(r, &req); err != nil {
		return nil, err
	}

	pr, err := s.store.GetPaymentRequest(r.Context(), req.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	if err != nil {
		return nil, err
	}
	if pr.ToUserID != userID(r) {
		return nil, fail(response.MsgUnauthorised)
	}
	if pr.PaymentStatusID != models.StatusPending {
		return nil, errNoData
	}
	return pr, nil
}
