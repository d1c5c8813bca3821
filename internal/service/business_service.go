package service

import (
	"errors"
	"net/http"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
)

// BusinessService manages the caller's businesses.
type BusinessService struct {
	base
}

// NewBusinessService creates a BusinessService.
func NewBusinessService(b base) *BusinessService {
	return &BusinessService{base: b}
}

type businessRequest struct {
	BusinessName string  `json:"business_name" validate:"required,max=255"`
	Phone        string  `json:"phone" validate:"required,max=15"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Address      *string `json:"address"`
	Currency     *string `json:"currency" validate:"omitempty,max=10"`
}

// List returns the businesses the caller owns or works for, with their
// income and expense totals.
func (s *BusinessService) List(w http.ResponseWriter, r *http.Request) error {
	var req PageQuery
	if err := s.bind(r, &req); err != nil {
		return err
	}

	rows, total, err := s.store.ListBusinesses(r.Context(), userID(r), req.page())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		response.NoData(w)
		return nil
	}

	response.List(w, r, s.opts.BaseURL, response.MsgDataFound, req.page(), total, rows)
	return nil
}

// Create adds a business owned by the caller.
func (s *BusinessService) Create(w http.ResponseWriter, r *http.Request) error {
	var req businessRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	now := models.Now()
	b := &models.Business{
		UserID:       userID(r),
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Currency:     req.Currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateBusiness(r.Context(), b); err != nil {
		return err
	}

	response.Success(w, response.MsgAdded, b)
	return nil
}

// Show returns one owned business.
func (s *BusinessService) Show(w http.ResponseWriter, r *http.Request) error {
	b, err := s.owned(r)
	if err != nil {
		return err
	}
	response.Success(w, "", b)
	return nil
}

// Update replaces the fields of an owned business.
func (s *BusinessService) Update(w http.ResponseWriter, r *http.Request) error {
	b, err := s.owned(r)
	if err != nil {
		return err
	}

	var req businessRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	b.BusinessName = req.BusinessName
	b.Phone = req.Phone
	b.Email = req.Email
	b.Address = req.Address
	b.Currency = req.Currency
	if err := s.store.UpdateBusiness(r.Context(), b); err != nil {
		return err
	}

	response.Success(w, response.MsgUpdated, b)
	return nil
}

// Delete removes an owned business with its customers, transactions and
// staff.
func (s *BusinessService) Delete(w http.ResponseWriter, r *http.Request) error {
	b, err := s.owned(r)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBusiness(r.Context(), b.ID); err != nil {
		return err
	}
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

// owned loads the business named by the path when the caller owns it.
func (s *BusinessService) owned(r *http.Request) (*models.Business, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return ownedBusiness(r, s.store, id)
}

// ownedBusiness returns the business if userID(r) owns it and errNoData
// otherwise.
func ownedBusiness(r *http.Request, store storage.BusinessStore, id int64) (*models.Business, error) {
	b, err := store.GetBusiness(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != userID(r) {
		return nil, errNoData
	}
	return b, nil
}
