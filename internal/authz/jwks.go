package authz

import (
	"context"
	"fmt"
	"time"

	"inkognito/internal/domain"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// JWKSAuthenticator accepts tokens from an external identity provider that
// publishes its keys as a JWK set.
type JWKSAuthenticator struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

func NewJWKSAuthenticator(jwksURL, issuer, audience string) (*JWKSAuthenticator, error) {
	options := keyfunc.Options{
		RefreshInterval:   time.Minute * 15,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
	jwks, err := keyfunc.Get(jwksURL, options)
	if err != nil {
		return nil, err
	}
	return &JWKSAuthenticator{jwks: jwks, issuer: issuer, audience: audience}, nil
}

func (j *JWKSAuthenticator) Method() string { return "jwks" }

func (j *JWKSAuthenticator) Authenticate(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	parsed, err := jwt.Parse(token, j.jwks.Keyfunc)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid claims", domain.ErrUnauthenticated)
	}
	if _, ok := claims["exp"]; !ok {
		return Identity{}, fmt.Errorf("%w: missing exp", domain.ErrUnauthenticated)
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return Identity{}, fmt.Errorf("%w: issuer mismatch", domain.ErrUnauthenticated)
	}
	if j.audience != "" && !claims.VerifyAudience(j.audience, true) {
		return Identity{}, fmt.Errorf("%w: audience mismatch", domain.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	userID, ok := subjectToUserID(sub)
	if !ok {
		return Identity{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthenticated)
	}
	username, _ := claims["username"].(string)
	return Identity{UserID: userID, Username: username, Method: j.Method()}, nil
}

// Close stops the background key refresh.
func (j *JWKSAuthenticator) Close() {
	if j.jwks != nil {
		j.jwks.EndBackground()
	}
}
