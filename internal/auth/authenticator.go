package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Registration carries the profile fields of a new account.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	ImageURL  string
	FCMToken  *string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account from the profile and credential.
	// Uniqueness of email and phone is checked by the caller.
	Register(ctx context.Context, reg Registration, credential string) (*models.User, error)

	// Authenticate verifies the credential of the user identified by handle
	// (email or phone) and returns the user if successful.
	Authenticate(ctx context.Context, handle, credential string) (*models.User, error)

	// ChangeCredential replaces the user's credential after verifying the
	// current one.
	ChangeCredential(ctx context.Context, user *models.User, current, next string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
