package authz

import (
	"context"
	"fmt"

	"inkognito/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type HMACAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewHMACAuthenticator(secret, issuer, audience string) *HMACAuthenticator {
	return &HMACAuthenticator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

func (h *HMACAuthenticator) Method() string { return "hmac" }

func (h *HMACAuthenticator) Authenticate(_ context.Context, token string) (Identity, error) {
	return parseSession(token, func(t *jwt.Token) (any, error) {
		// Ensure HS* (HMAC) only
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.secret, nil
	}, h.issuer, h.audience, h.Method())
}

func parseSession(token string, keyfunc jwt.Keyfunc, issuer, audience, method string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, keyfunc, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	userID, ok := subjectToUserID(claims.Subject)
	if !ok {
		return Identity{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthenticated)
	}
	return Identity{UserID: userID, Username: claims.Username, Method: method}, nil
}
