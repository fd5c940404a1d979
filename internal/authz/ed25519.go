package authz

import (
	"context"

	"inkognito/internal/jwtsigner"
)

// Ed25519Authenticator checks tokens minted by the local EdDSA signer.
type Ed25519Authenticator struct {
	signer   *jwtsigner.Signer
	audience string
}

func NewEd25519Authenticator(signer *jwtsigner.Signer, audience string) *Ed25519Authenticator {
	return &Ed25519Authenticator{signer: signer, audience: audience}
}

func (e *Ed25519Authenticator) Method() string { return "eddsa" }

func (e *Ed25519Authenticator) Authenticate(_ context.Context, token string) (Identity, error) {
	return parseSession(token, e.signer.Keyfunc, e.signer.Issuer, e.audience, e.Method())
}
