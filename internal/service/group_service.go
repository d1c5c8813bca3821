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

// GroupService manages groups and their membership.
type GroupService struct {
	base
}

// NewGroupService creates a GroupService.
func NewGroupService(b base) *GroupService {
	return &GroupService{base: b}
}

// UserRef names a user in a list input.
type UserRef struct {
	UserID int64 `json:"user_id" validate:"required"`
}

func refIDs(refs []UserRef) []int64 {
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.UserID)
	}
	return ids
}

type createGroupRequest struct {
	Name        string    `json:"name" validate:"required,max=255"`
	GroupTypeID int64     `json:"group_type_id" validate:"required"`
	Members     []UserRef `json:"members" validate:"required,min=1,dive"`
	ImageURL    *string   `json:"image_url"`
}

type updateGroupRequest struct {
	GroupID     int64   `json:"group_id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
	GroupTypeID *int64  `json:"group_type_id"`
	ImageURL    *string `json:"image_url"`
}

type groupRequest struct {
	GroupID int64 `json:"group_id" validate:"required"`
}

type groupUsersRequest struct {
	GroupID  int64     `json:"group_id" validate:"required"`
	UserList []UserRef `json:"user_list" validate:"required,min=1,dive"`
}

type listGroupsRequest struct {
	UserID int64 `json:"user_id"`
	PageQuery
}

// groupDetail is a group with its members.
type groupDetail struct {
	models.Group
	Members []models.UserBrief `json:"members"`
}

// groupSummary is a group with its bills as shown in the group list. Each
// bill's amount is what is still pending on it.
type groupSummary struct {
	models.Group
	BillStatus     string     `json:"bill_status"`
	TotalBillCount int        `json:"total_bill_count"`
	Bills          []billView `json:"bills"`
}

// memberBalance is one member's outstanding position in a group.
type memberBalance struct {
	models.UserBrief
	TotalReceivedAmount  decimal.Decimal `json:"total_received_amount"`
	TotalPaidAmount      decimal.Decimal `json:"total_paid_amount"`
	TotalRemainingAmount decimal.Decimal `json:"total_remaining_amount"`
	Status               string          `json:"status"`
}

// memberError reports why one user could not be removed.
type memberError struct {
	UserID int64  `json:"user_id"`
	Error  string `json:"error"`
}

// Types lists the seeded group types.
func (s *GroupService) Types(w http.ResponseWriter, r *http.Request) error {
	types, err := s.store.ListGroupTypes(r.Context())
	if err != nil {
		return err
	}
	response.Success(w, response.MsgDataFound, types)
	return nil
}

// Create makes a group with the caller as its admin.
func (s *GroupService) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req createGroupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	var errs validation.Errors
	if err := s.checkGroupType(ctx, req.GroupTypeID, &errs); err != nil {
		return err
	}
	if err := checkUsers(ctx, s.store, "members", req.Members, &errs); err != nil {
		return err
	}
	if !errs.Empty() {
		return errs
	}

	now := models.Now()
	g := &models.Group{
		Name:        req.Name,
		GroupTypeID: req.GroupTypeID,
		ImageURL:    s.opts.DefaultImage,
		CreatedBy:   userID(r),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.ImageURL != nil && *req.ImageURL != "" {
		g.ImageURL = *req.ImageURL
	}
	if err := s.store.CreateGroup(ctx, g, unique(refIDs(req.Members))); err != nil {
		return err
	}

	slog.Info("Group created", "group_id", g.ID, "members_count", len(req.Members))

	detail, err := s.detail(ctx, g)
	if err != nil {
		return err
	}
	response.Success(w, msgGroupCreated, detail)
	return nil
}

// Update changes the given fields of a group. Admins only.
func (s *GroupService) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req updateGroupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, err := s.adminGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	if req.GroupTypeID != nil {
		var errs validation.Errors
		if err := s.checkGroupType(ctx, *req.GroupTypeID, &errs); err != nil {
			return err
		}
		if !errs.Empty() {
			return errs
		}
		g.GroupTypeID = *req.GroupTypeID
	}
	if req.Name != nil && *req.Name != "" {
		g.Name = *req.Name
	}
	if req.ImageURL != nil && *req.ImageURL != "" {
		g.ImageURL = *req.ImageURL
	}

	if err := s.store.UpdateGroup(ctx, g); err != nil {
		return err
	}

	detail, err := s.detail(ctx, g)
	if err != nil {
		return err
	}
	response.Success(w, response.MsgUpdated, detail)
	return nil
}

// Delete removes a group once none of its splits is outstanding. Admins
// only. Bills of the group are kept without a group.
func (s *GroupService) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req groupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, err := s.adminGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	pending, err := s.store.GroupHasOutstandingSplits(ctx, g.ID)
	if err != nil {
		return err
	}
	if pending {
		return fail(msgPendingBills)
	}

	if err := s.store.DeleteGroup(ctx, g.ID); err != nil {
		return err
	}

	slog.Info("Group deleted", "group_id", g.ID)
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

// AddUsers adds users to a group, skipping current members. Admins only.
func (s *GroupService) AddUsers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req groupUsersRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, err := s.adminGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	var errs validation.Errors
	if err := checkUsers(ctx, s.store, "user_list", req.UserList, &errs); err != nil {
		return err
	}
	if !errs.Empty() {
		return errs
	}

	added, err := s.store.AddGroupUsers(ctx, g.ID, unique(refIDs(req.UserList)))
	if err != nil {
		return err
	}
	if len(added) == 0 {
		response.Success(w, "", nil)
		return nil
	}

	slog.Info("Group members added", "group_id", g.ID, "added", added)

	detail, err := s.detail(ctx, g)
	if err != nil {
		return err
	}
	response.Success(w, response.MsgAdded, detail)
	return nil
}

// RemoveUsers removes members that have nothing outstanding in the group.
// Admins only. If any user fails, nobody is removed.
func (s *GroupService) RemoveUsers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req groupUsersRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, err := s.adminGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	ids := unique(refIDs(req.UserList))
	pending, err := s.store.UsersWithOutstandingSplits(ctx, g.ID, ids)
	if err != nil {
		return err
	}
	blocked := make(map[int64]bool, len(pending))
	for _, id := range pending {
		blocked[id] = true
	}

	var failures []memberError
	for _, id := range ids {
		_, err := s.store.GetGroupUser(ctx, g.ID, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			failures = append(failures, memberError{UserID: id, Error: msgNotGroupMember})
		case err != nil:
			return err
		case blocked[id]:
			failures = append(failures, memberError{UserID: id, Error: msgPendingTransactions})
		}
	}
	if len(failures) > 0 {
		response.Fail(w, http.StatusBadRequest, failures)
		return nil
	}

	if err := s.store.RemoveGroupUsers(ctx, g.ID, ids); err != nil {
		return err
	}

	slog.Info("Group members removed", "group_id", g.ID, "removed", ids)
	response.Success(w, response.MsgDeleted, nil)
	return nil
}

// Leave removes the caller from a group unless they have something
// outstanding in it.
func (s *GroupService) Leave(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req groupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, _, err := s.memberGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	caller := userID(r)
	pending, err := s.store.UsersWithOutstandingSplits(ctx, g.ID, []int64{caller})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fail(msgPendingTransactions)
	}

	if err := s.store.RemoveGroupUsers(ctx, g.ID, []int64{caller}); err != nil {
		return err
	}
	response.Success(w, msgGroupLeft, nil)
	return nil
}

// ListOfGroup lists the caller's groups with their bills and statuses.
func (s *GroupService) ListOfGroup(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req listGroupsRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}
	if req.UserID != 0 && req.UserID != userID(r) {
		return fail(response.MsgUnauthorised)
	}

	groups, total, err := s.store.ListGroupsForUser(ctx, userID(r), req.page())
	if err != nil {
		return err
	}

	groupIDs := make([]int64, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}
	var bills []models.Bill
	if len(groupIDs) > 0 {
		if bills, err = s.store.ListBillsForGroups(ctx, groupIDs); err != nil {
			return err
		}
	}
	splits, err := loadSplits(ctx, s.store, bills)
	if err != nil {
		return err
	}

	byGroup := make(map[int64][]billView)
	for _, b := range bills {
		v := newBillView(b, splits[b.ID])
		v.Amount = calculator.PendingAmount(splits[b.ID])
		byGroup[*b.GroupID] = append(byGroup[*b.GroupID], v)
	}

	out := make([]groupSummary, 0, len(groups))
	for _, g := range groups {
		summary := groupSummary{
			Group:      g,
			BillStatus: calculator.BillPaid,
			Bills:      byGroup[g.ID],
		}
		if summary.Bills == nil {
			summary.Bills = []billView{}
		}
		summary.TotalBillCount = len(summary.Bills)
		for _, b := range summary.Bills {
			if b.Status == calculator.BillPending {
				summary.BillStatus = calculator.BillPending
				break
			}
		}
		out = append(out, summary)
	}

	response.List(w, r, s.opts.BaseURL, "", req.page(), total, out)
	return nil
}

// ListOfUser lists a group's members with their outstanding balances.
func (s *GroupService) ListOfUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req groupRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	g, _, err := s.memberGroup(r, req.GroupID)
	if err != nil {
		return err
	}

	members, err := s.store.ListGroupMembers(ctx, g.ID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		response.NoData(w)
		return nil
	}
	splits, err := s.store.SplitsForGroup(ctx, g.ID)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	balances := calculator.MemberBalances(ids, calculator.Outstanding(splits))

	out := make([]memberBalance, 0, len(members))
	for i, m := range members {
		b := balances[i]
		out = append(out, memberBalance{
			UserBrief:            m.Brief(),
			TotalReceivedAmount:  b.Received,
			TotalPaidAmount:      b.Paid,
			TotalRemainingAmount: b.Remaining,
			Status:               calculator.StatusLabel(b.Remaining),
		})
	}

	response.Success(w, response.MsgDataFound, out)
	return nil
}

// memberGroup loads a group the caller belongs to.
func (s *GroupService) memberGroup(r *http.Request, id int64) (*models.Group, *models.GroupUser, error) {
	return requireMember(r, s.store, id)
}

// adminGroup loads a group the caller administers.
func (s *GroupService) adminGroup(r *http.Request, id int64) (*models.Group, error) {
	g, member, err := s.memberGroup(r, id)
	if err != nil {
		return nil, err
	}
	if !member.IsAdmin {
		return nil, fail(msgNotGroupAdmin)
	}
	return g, nil
}

func (s *GroupService) checkGroupType(ctx context.Context, id int64, errs *validation.Errors) error {
	ok, err := s.store.GroupTypeExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add("group_type_id", validation.Invalid("group_type_id"))
	}
	return nil
}

func (s *GroupService) detail(ctx context.Context, g *models.Group) (groupDetail, error) {
	members, err := s.store.ListGroupMembers(ctx, g.ID)
	if err != nil {
		return groupDetail{}, err
	}
	d := groupDetail{Group: *g, Members: make([]models.UserBrief, 0, len(members))}
	for _, m := range members {
		d.Members = append(d.Members, m.Brief())
	}
	return d, nil
}

// requireMember loads the group and the caller's membership row.
func requireMember(r *http.Request, store storage.GroupStore, groupID int64) (*models.Group, *models.GroupUser, error) {
	ctx := r.Context()
	g, err := store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, validation.Errors{{Key: "group_id", Error: validation.Invalid("group_id")}}
	}
	if err != nil {
		return nil, nil, err
	}
	member, err := store.GetGroupUser(ctx, groupID, userID(r))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fail(msgNotGroupMember)
	}
	if err != nil {
		return nil, nil, err
	}
	return g, member, nil
}

// checkUsers reports every entry of refs that is not an active user under
// "<key>.<index>.user_id".
func checkUsers(ctx context.Context, store storage.UserStore, key string, refs []UserRef, errs *validation.Errors) error {
	found, err := store.ExistingUserIDs(ctx, unique(refIDs(refs)))
	if err != nil {
		return err
	}
	active := make(map[int64]bool, len(found))
	for _, id := range found {
		active[id] = true
	}
	for i, ref := range refs {
		if !active[ref.UserID] {
			k := fmt.Sprintf("%s.%d.user_id", key, i)
			errs.Add(k, validation.Invalid(k))
		}
	}
	return nil
}
