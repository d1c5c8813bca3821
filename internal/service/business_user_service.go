package service

import (
	"errors"
	"net/http"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// BusinessUserService manages staff roles on a business.
type BusinessUserService struct {
	base
}

// NewBusinessUserService creates a BusinessUserService.
func NewBusinessUserService(b base) *BusinessUserService {
	return &BusinessUserService{base: b}
}

type listBusinessUsersRequest struct {
	BusinessID int64 `json:"business_id" validate:"required"`
}

type addBusinessUserRequest struct {
	BusinessID int64  `json:"business_id" validate:"required"`
	UserID     int64  `json:"user_id" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=Owner Staff"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=Owner Staff"`
}

// List returns the members of a business. Requires the Owner role.
func (s *BusinessUserService) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req listBusinessUsersRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	owner, err := s.store.HasBusinessRole(ctx, req.BusinessID, userID(r), models.RoleOwner)
	if err != nil {
		return err
	}
	if !owner {
		return fail(response.MsgUnauthorised)
	}

	members, err := s.store.ListBusinessMembers(ctx, req.BusinessID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		response.NoData(w)
		return nil
	}

	response.Success(w, "", members)
	return nil
}

// Create grants a user a role on a business owned by the caller.
func (s *BusinessUserService) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req addBusinessUserRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	found, err := s.store.ExistingUserIDs(ctx, []int64{req.UserID})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return validation.Errors{{Key: "user_id", Error: validation.Invalid("user_id")}}
	}

	if _, err := ownedBusiness(r, s.store, req.BusinessID); err != nil {
		return fail(response.MsgUnauthorised)
	}

	exists, err := s.store.BusinessUserExists(ctx, req.BusinessID, req.UserID)
	if err != nil {
		return err
	}
	if exists {
		return fail(msgRecordExists)
	}

	now := models.Now()
	bu := &models.BusinessUser{
		BusinessID: req.BusinessID,
		UserID:     req.UserID,
		Role:       req.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateBusinessUser(ctx, bu); err != nil {
		return err
	}

	response.Success(w, response.MsgAdded, bu)
	return nil
}

// Update changes a member's role. Only the business owner may do this.
func (s *BusinessUserService) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req roleRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	bu, err := s.find(r)
	if err != nil {
		return err
	}
	if _, err := ownedBusiness(r, s.store, bu.BusinessID); err != nil {
		return fail(response.MsgUnauthorised)
	}

	if err := s.store.UpdateBusinessUserRole(ctx, bu.ID, req.Role); err != nil {
		return err
	}
	bu.Role = req.Role
	bu.UpdatedAt = models.Now()

	response.Success(w, response.MsgUpdated, bu)
	return nil
}

// Delete removes a member. Requires the Owner role.
func (s *BusinessUserService) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	bu, err := s.find(r)
	if err != nil {
		return err
	}

	owner, err := s.store.HasBusinessRole(ctx, bu.BusinessID, userID(r), models.RoleOwner)
	if err != nil {
		return err
	}
	if !owner {
		return fail(response.MsgUnauthorised)
	}

	if err := s.store.DeleteBusinessUser(ctx, bu.ID); err != nil {
		return err
	}
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

func (s *BusinessUserService) find(r *http.Request) (*models.BusinessUser, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	bu, err := s.store.GetBusinessUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	return bu, err
}
