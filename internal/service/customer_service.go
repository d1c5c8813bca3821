package service

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
)

// CustomerService manages the customers of the caller's businesses.
type CustomerService struct {
	base
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(b base) *CustomerService {
	return &CustomerService{base: b}
}

// CustomerFields are the editable fields of a customer.
type CustomerFields struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Phone          string           `json:"phone" validate:"required,max=15"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	Address        *string          `json:"address"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

type createCustomerRequest struct {
	BusinessID int64 `json:"business_id" validate:"required"`
	CustomerFields
}

type listCustomersRequest struct {
	BusinessID int64 `json:"business_id" validate:"required"`
	PageQuery
}

// List returns the customers of an owned business with their balances.
func (s *CustomerService) List(w http.ResponseWriter, r *http.Request) error {
	var req listCustomersRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	if _, err := ownedBusiness(r, s.store, req.BusinessID); err != nil {
		return err
	}

	rows, total, err := s.store.ListCustomers(r.Context(), req.BusinessID, req.page())
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

// Create adds a customer to an owned business.
func (s *CustomerService) Create(w http.ResponseWriter, r *http.Request) error {
	var req createCustomerRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	if _, err := ownedBusiness(r, s.store, req.BusinessID); err != nil {
		return err
	}

	now := models.Now()
	c := &models.Customer{BusinessID: req.BusinessID, CreatedAt: now, UpdatedAt: now}
	req.CustomerFields.apply(c)
	if err := s.store.CreateCustomer(r.Context(), c); err != nil {
		return err
	}

	response.Success(w, response.MsgAdded, c)
	return nil
}

// Show returns one customer of an owned business.
func (s *CustomerService) Show(w http.ResponseWriter, r *http.Request) error {
	c, err := s.owned(r)
	if err != nil {
		return err
	}
	response.Success(w, "", c)
	return nil
}

// Update replaces the fields of a customer. An omitted opening balance is
// left unchanged.
func (s *CustomerService) Update(w http.ResponseWriter, r *http.Request) error {
	c, err := s.owned(r)
	if err != nil {
		return err
	}

	var req CustomerFields
	if err := s.bind(r, &req); err != nil {
		return err
	}

	req.apply(c)
	if err := s.store.UpdateCustomer(r.Context(), c); err != nil {
		return err
	}

	response.Success(w, response.MsgUpdated, c)
	return nil
}

// Delete removes a customer and its transactions.
func (s *CustomerService) Delete(w http.ResponseWriter, r *http.Request) error {
	c, err := s.owned(r)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCustomer(r.Context(), c.ID); err != nil {
		return err
	}
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

func (f CustomerFields) apply(c *models.Customer) {
	c.Name = f.Name
	c.Phone = f.Phone
	c.Email = f.Email
	c.Address = f.Address
	if f.OpeningBalance != nil {
		c.OpeningBalance = *f.OpeningBalance
	}
}

// owned loads the customer named by the path when the caller owns its
// business.
func (s *CustomerService) owned(r *http.Request) (*models.Customer, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCustomer(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	if err != nil {
		return nil, err
	}
	if _, err := ownedBusiness(r, s.store, c.BusinessID); err != nil {
		return nil, err
	}
	return c, nil
}
