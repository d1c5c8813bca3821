// Package service holds the HTTP handlers of every resource and assembles
// them into the API router.
package service

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// Failure messages returned with 400.
const (
	msgAmountMismatch      = "Amount does not match."
	msgPendingTransactions = "User has pending transactions."
	msgPendingBills        = "Group has pending bills."
	msgRequestExists       = "Payment request already created."
	msgBillTypeMissing     = "Bill type for payment_transaction not found."
	msgInvalidLogin        = "Invalid UserId Password"
	msgWrongPassword       = "Current password is incorrect"
	msgRecordExists        = "Record Alerady Exists"
	msgNotGroupMember      = "You are not a member of this group."
	msgNotGroupAdmin       = "Only a group admin can do this."
)

// Success messages.
const (
	msgUserCreated     = "User created successfully."
	msgLogin           = "Login successfully."
	msgLogout          = "Logout successfully."
	msgPasswordChanged = "Password changed successfully."
	msgUserDeleted     = "User deleted successfully."
	msgGroupCreated    = "Group created successfully."
	msgGroupLeft       = "Group left successfully."
	msgBillAdded       = "Bill added successfully."
	msgPaymentAccepted = "Payment request accepted successfully."
	msgPaymentRejected = "Payment request rejected successfully."
)

// Options carries the settings handlers read at request time.
type Options struct {
	// BaseURL prefixes page links. Empty means the request's host.
	BaseURL string
	// DefaultImage is assigned to users and groups created without one.
	DefaultImage string
}

// Failure is a business-rule failure reported to the caller with 400 and
// a single message.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func fail(message string) error {
	return &Failure{Message: message}
}

var errNoData = fail(response.MsgNoData)

// base holds what every resource service shares.
type base struct {
	store    storage.Store
	validate *validation.Validator
	opts     Options
}

// handlerFunc is a handler that reports failure by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc, mapping its error onto the envelope.
func handle(op string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			handleError(w, r, op, err)
		}
	}
}

// handleError is the one place errors become status codes.
func handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		failure *Failure
		invalid validation.Errors
	)
	switch {
	case errors.As(err, &invalid):
		response.Invalid(w, invalid)
	case errors.As(err, &failure):
		response.Fail(w, http.StatusBadRequest, failure.Message)
	case errors.Is(err, storage.ErrNotFound):
		response.Fail(w, http.StatusBadRequest, response.MsgNoData)
	case errors.Is(err, calculator.ErrAmountMismatch):
		response.Fail(w, http.StatusBadRequest, msgAmountMismatch)
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Fail(w, http.StatusBadRequest, msgInvalidLogin)
	default:
		slog.Error(op+" failed",
			"error", err,
			"user_id", middleware.GetUserID(r.Context()),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		response.Fail(w, http.StatusInternalServerError, response.MsgServerError)
	}
}

// bind fills dst from the query string and then the JSON body, the way a
// form request merges both, and checks the struct rules.
func (b *base) bind(r *http.Request, dst any) error {
	errs := validation.DecodeQuery(r.URL.Query(), dst)
	errs.Merge(validation.DecodeJSON(r, dst))
	if !errs.Empty() {
		return errs
	}
	return b.validate.Struct(dst).Err()
}

// PageQuery is embedded by list requests.
type PageQuery struct {
	Page  int `json:"page" validate:"gte=0"`
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

const defaultLimit = 10

func (q PageQuery) page() storage.Page {
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	return storage.Page{Number: q.Page, Limit: limit}
}

// pathID reads the {id} route parameter. Malformed ids are reported as
// missing records.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errNoData
	}
	return id, nil
}

// userID is the authenticated caller.
func userID(r *http.Request) int64 {
	return middleware.GetUserID(r.Context())
}

// unique drops repeated ids, keeping first occurrences.
func unique(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
