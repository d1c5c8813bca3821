package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/validation"
)

// UserService handles registration, login and the caller's own account.
type UserService struct {
	base
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewUserService creates a UserService.
func NewUserService(b base, authenticator auth.Authenticator, jwtManager *auth.JWTManager) *UserService {
	return &UserService{base: b, authenticator: authenticator, jwtManager: jwtManager}
}

type registerRequest struct {
	FirstName       string  `json:"first_name" validate:"required,max=255"`
	LastName        string  `json:"last_name" validate:"required,max=255"`
	Email           string  `json:"email" validate:"required,email,max=255"`
	Phone           string  `json:"phone" validate:"required,min=10,max=12"`
	Password        string  `json:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	FCMToken        *string `json:"fcm_token"`
	ImageURL        *string `json:"image_url"`
}

// Register creates an account and returns it with a token.
func (s *UserService) Register(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req registerRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	var errs validation.Errors
	taken, err := s.store.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("email", validation.Taken("email"))
	}
	taken, err = s.store.PhoneTaken(ctx, req.Phone, 0)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("phone", validation.Taken("phone"))
	}
	if !errs.Empty() {
		return errs
	}

	reg := auth.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		ImageURL:  s.opts.DefaultImage,
		FCMToken:  req.FCMToken,
	}
	if req.ImageURL != nil && *req.ImageURL != "" {
		reg.ImageURL = *req.ImageURL
	}

	user, err := s.authenticator.Register(ctx, reg, req.Password)
	if err != nil {
		return err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return err
	}

	slog.Info("User registered", "user_id", user.ID)
	response.Success(w, msgUserCreated, user, response.With("token", token))
	return nil
}

type loginRequest struct {
	// Email holds either the email or the phone number.
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required,min=6"`
	FCMToken *string `json:"fcm_token"`
}

// Login authenticates by email or phone and returns a fresh token.
func (s *UserService) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req loginRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	user, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(msgInvalidLogin)
	case errors.Is(err, auth.ErrUserDeleted):
		return fail(response.MsgUnauthorised)
	case err != nil:
		return err
	}

	if req.FCMToken != nil && *req.FCMToken != "" {
		if err := s.store.UpdateFCMToken(ctx, user.ID, *req.FCMToken); err != nil {
			return err
		}
		user.FCMToken = req.FCMToken
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return err
	}

	slog.Info("User logged in", "user_id", user.ID)
	response.Success(w, msgLogin, user, response.With("token", token))
	return nil
}

// Logout revokes the token the request was made with.
func (s *UserService) Logout(w http.ResponseWriter, r *http.Request) error {
	claims := middleware.GetClaims(r.Context())
	if err := s.store.RevokeToken(r.Context(), claims.ID, claims.Expiry()); err != nil {
		return err
	}
	response.Success(w, msgLogout, nil)
	return nil
}

// Profile returns the caller.
func (s *UserService) Profile(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, response.MsgDataFound, middleware.GetUser(r.Context()))
	return nil
}

type updateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=255"`
	LastName  string  `json:"last_name" validate:"required,max=255"`
	Phone     string  `json:"phone" validate:"required,min=10,max=12"`
	ImageURL  *string `json:"image_url"`
	FCMToken  *string `json:"fcm_token"`
}

// UpdateProfile changes the caller's name, phone, image and push token.
func (s *UserService) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var req updateProfileRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	taken, err := s.store.PhoneTaken(ctx, req.Phone, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return validation.Errors{{Key: "phone", Error: validation.Taken("phone")}}
	}

	updated := *user
	updated.FirstName = req.FirstName
	updated.LastName = req.LastName
	updated.Phone = req.Phone
	if req.ImageURL != nil && *req.ImageURL != "" {
		updated.ImageURL = *req.ImageURL
	}
	if req.FCMToken != nil {
		updated.FCMToken = req.FCMToken
	}

	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		return err
	}

	response.Success(w, response.MsgUpdated, &updated)
	return nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ChangePassword replaces the caller's password after checking the
// current one.
func (s *UserService) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req changePasswordRequest
	if err := s.bind(r, &req); err != nil {
		return err
	}

	err := s.authenticator.ChangeCredential(ctx, middleware.GetUser(ctx), req.CurrentPassword, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return fail(msgWrongPassword)
	}
	if err != nil {
		return err
	}

	response.Success(w, msgPasswordChanged, nil)
	return nil
}

// Delete soft-deletes the caller unless they still take part in an
// unsettled split. The current token is revoked with it.
func (s *UserService) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	pending, err := s.store.UserHasOutstandingSplits(ctx, user.ID)
	if err != nil {
		return err
	}
	if pending {
		return fail(msgPendingTransactions)
	}

	if err := s.store.SoftDeleteUser(ctx, user.ID); err != nil {
		return err
	}
	claims := middleware.GetClaims(ctx)
	if err := s.store.RevokeToken(ctx, claims.ID, claims.Expiry()); err != nil {
		return err
	}

	slog.Info("User deleted", "user_id", user.ID)
	response.Success(w, msgUserDeleted, nil)
	return nil
}
