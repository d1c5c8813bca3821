package service

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// TransactionService records income and expense against customers.
type TransactionService struct {
	base
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(b base) *TransactionService {
	return &TransactionService{base: b}
}

type listTransactionsRequest struct {
	BusinessID      int64  `json:"business_id" validate:"required"`
	CustomerID      int64  `json:"customer_id"`
	TransactionType string `json:"transaction_type" validate:"omitempty,oneof=income expense"`
	FromDate        string `json:"from_date" validate:"omitempty,date"`
	ToDate          string `json:"to_date" validate:"omitempty,date"`
	PageQuery
}

// TransactionFields are the editable fields of a transaction.
type TransactionFields struct {
	TransactionType string          `json:"transaction_type" validate:"required,oneof=income expense"`
	Amount          decimal.Decimal `json:"amount" validate:"required,min=0.01,money"`
	TransactionDate string          `json:"transaction_date" validate:"required,date"`
	PaymentMode     string          `json:"payment_mode" validate:"required,oneof=Cash Online card"`
	Description     *string         `json:"description"`
}

type createTransactionRequest struct {
	BusinessID int64 `json:"business_id" validate:"required"`
	CustomerID int64 `json:"customer_id" validate:"required"`
	TransactionFields
}

// List returns a business's transactions, newest date first, with totals
// over the whole business and over the current filters.
func (s *TransactionService) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req listTransactionsRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	if req.FromDate != "" && req.ToDate != "" && req.ToDate < req.FromDate {
		return validation.Errors{{Key: "to_date", Error: validation.AfterOrEqual("to_date", "from_date")}}
	}
	if err := s.requireAccess(r, req.BusinessID); err != nil {
		return err
	}

	filter := storage.TransactionFilter{
		BusinessID:      req.BusinessID,
		CustomerID:      req.CustomerID,
		TransactionType: req.TransactionType,
		FromDate:        req.FromDate,
		ToDate:          req.ToDate,
	}
	rows, total, err := s.store.ListTransactions(ctx, filter, req.page())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		response.NoData(w)
		return nil
	}

	overall, err := s.store.TransactionTotals(ctx, storage.TransactionFilter{BusinessID: req.BusinessID})
	if err != nil {
		return err
	}
	filtered, err := s.store.TransactionTotals(ctx, filter)
	if err != nil {
		return err
	}

	response.List(w, r, s.opts.BaseURL, response.MsgDataFound, req.page(), total, rows,
		response.With("overall_counts", overall),
		response.With("filtered_counts", filtered),
	)
	return nil
}

// Create records a transaction for a customer of the business.
func (s *TransactionService) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req createTransactionRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	if err := s.requireAccess(r, req.BusinessID); err != nil {
		return err
	}

	c, err := s.store.GetCustomer(ctx, req.CustomerID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && c.BusinessID != req.BusinessID) {
		return errNoData
	}
	if err != nil {
		return err
	}

	now := models.Now()
	t := &models.Transaction{
		BusinessID: req.BusinessID,
		CustomerID: req.CustomerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	req.TransactionFields.apply(t)
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return err
	}

	response.Success(w, response.MsgAdded, t)
	return nil
}

// Show returns one transaction of an accessible business.
func (s *TransactionService) Show(w http.ResponseWriter, r *http.Request) error {
	t, err := s.accessible(r)
	if err != nil {
		return err
	}
	response.Success(w, "", t)
	return nil
}

// Update replaces the fields of a transaction.
func (s *TransactionService) Update(w http.ResponseWriter, r *http.Request) error {
	t, err := s.accessible(r)
	if err != nil {
		return err
	}

	var req TransactionFields
	if err := s.bind(r, &req); err != nil {
		return err
	}

	req.apply(t)
	if err := s.store.UpdateTransaction(r.Context(), t); err != nil {
		return err
	}

	response.Success(w, response.MsgUpdated, t)
	return nil
}

// Delete removes a transaction.
func (s *TransactionService) Delete(w http.ResponseWriter, r *http.Request) error {
	t, err := s.accessible(r)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(r.Context(), t.ID); err != nil {
		return err
	}
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

func (f TransactionFields) apply(t *models.Transaction) {
	t.TransactionType = f.TransactionType
	t.Amount = f.Amount
	t.TransactionDate = f.TransactionDate
	t.PaymentMode = f.PaymentMode
	t.Description = f.Description
}

// requireAccess fails unless the caller owns or works for the business.
func (s *TransactionService) requireAccess(r *http.Request, businessID int64) error {
	ok, err := s.store.HasBusinessAccess(r.Context(), businessID, userID(r))
	if err != nil {
		return err
	}
	if !ok {
		return fail(response.MsgUnauthorised)
	}
	return nil
}

// accessible loads the transaction named by the path. Transactions of
// businesses the caller cannot access are reported as missing.
func (s *TransactionService) accessible(r *http.Request) (*models.Transaction, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetTransaction(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.store.HasBusinessAccess(r.Context(), t.BusinessID, userID(r))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoData
	}
	return t, nil
}
