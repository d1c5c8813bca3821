package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for the validated token claims.
	ClaimsKey contextKey = "claims"
	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"
)

// TokenStore is the storage RequireAuth needs to admit a request.
type TokenStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// GetClaims returns the claims of the current token, or nil before auth.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// GetUser returns the authenticated user, or nil before auth.
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// GetUserID returns the authenticated user's ID, or 0 before auth.
func GetUserID(ctx context.Context) int64 {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return 0
}

// WithUser stores claims and user in ctx the way RequireAuth does.
func WithUser(ctx context.Context, claims *auth.Claims, user *models.User) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserKey, user)
}

// RequireAuth admits requests carrying a valid, unrevoked bearer token of
// an active user. Everything else gets 401 "Unauthorised User".
func RequireAuth(jwtManager *auth.JWTManager, store TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthenticated(w, auth.ErrMissingToken)
				return
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				unauthenticated(w, err)
				return
			}

			revoked, err := store.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				response.Fail(w, http.StatusInternalServerError, response.MsgServerError)
				return
			}
			if revoked {
				unauthenticated(w, errors.New("token revoked"))
				return
			}

			user, err := store.GetUserByID(ctx, claims.UserID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				slog.Error("failed to load token user", "user_id", claims.UserID, "error", err)
				response.Fail(w, http.StatusInternalServerError, response.MsgServerError)
				return
			}
			if user == nil || user.Deleted() {
				unauthenticated(w, errors.New("user not active"))
				return
			}

			setLoggedUser(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(ctx, claims, user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthenticated(w http.ResponseWriter, cause error) {
	slog.Debug("request rejected", "reason", cause)
	response.Fail(w, http.StatusUnauthorized, response.MsgUnauthorised)
}
