package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkognito/internal/authz"
	"inkognito/internal/domain"
	"inkognito/internal/jwtsigner"

	"github.com/google/uuid"
)

func TestTokenServiceHS256RoundTrip(t *testing.T) {
	ts := NewTokenServiceHS256(TokenConfig{
		Issuer:     "inkognito-test",
		Audience:   "inkognito",
		TTL:        time.Hour,
		SigningKey: []byte("secret"),
	})
	user := &domain.User{ID: uuid.New(), Username: "alice", EmailVerified: true}

	tok, err := ts.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.ExpiresIn != 3600 {
		t.Fatalf("expiresIn = %d", tok.ExpiresIn)
	}

	id, err := authz.NewHMACAuthenticator("secret", "inkognito-test", "inkognito").Authenticate(context.Background(), tok.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != user.ID || id.Username != "alice" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestTokenServiceEdDSARoundTrip(t *testing.T) {
	signer, err := jwtsigner.NewFromBase64("", "kid-1", "inkognito-test")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	ts := NewTokenServiceEdDSA(TokenConfig{Audience: "inkognito", TTL: time.Minute}, signer)
	user := &domain.User{ID: uuid.New(), Username: "bob"}

	tok, err := ts.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := authz.NewEd25519Authenticator(signer, "inkognito").Authenticate(context.Background(), tok.Token)
	if err != nil || id.UserID != user.ID {
		t.Fatalf("authenticate: %v %+v", err, id)
	}
}

func TestTokenServiceExpiry(t *testing.T) {
	ts := NewTokenServiceHS256(TokenConfig{Issuer: "i", Audience: "a", TTL: time.Minute, SigningKey: []byte("k")})
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	tok, err := ts.Issue(context.Background(), &domain.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = authz.NewHMACAuthenticator("k", "i", "a").Authenticate(context.Background(), tok.Token)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenServiceWithoutKey(t *testing.T) {
	ts := NewTokenServiceHS256(TokenConfig{TTL: time.Minute})
	if _, err := ts.Issue(context.Background(), &domain.User{ID: uuid.New()}); !errors.Is(err, ErrNoSigningKey) {
		t.Fatalf("expected ErrNoSigningKey, got %v", err)
	}
}
