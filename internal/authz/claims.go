package authz

import (
	"context"

	"inkognito/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of a session token issued at signin.
type SessionClaims struct {
	Username string `json:"username"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID   domain.UserID
	Username string
	Method   string
}

// Authenticator resolves a raw session token to an Identity. Every failure
// wraps domain.ErrUnauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
	Method() string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func subjectToUserID(sub string) (domain.UserID, bool) {
	id, err := uuid.Parse(sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
