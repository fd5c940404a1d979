package impl

import (
	"context"
	"log/slog"
	"time"

	"inkognito/internal/authz"
	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/jwtsigner"
	"inkognito/internal/observability/metrics"
	"inkognito/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string        // e.g. "http://localhost:8080"
	Audience   string        // e.g. "inkognito"
	TTL        time.Duration // session lifetime
	SigningKey []byte        // HS256 secret
}

type TokenServiceImpl struct {
	cfg    TokenConfig
	signer *jwtsigner.Signer
	now    func() time.Time
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, now: time.Now}
}

// NewTokenServiceEdDSA signs with signer; the issuer comes from the signer.
func NewTokenServiceEdDSA(cfg TokenConfig, signer *jwtsigner.Signer) *TokenServiceImpl {
	cfg.Issuer = signer.Issuer
	return &TokenServiceImpl{cfg: cfg, signer: signer, now: time.Now}
}

func (t *TokenServiceImpl) alg() string {
	if t.signer != nil {
		return jwt.SigningMethodEdDSA.Alg()
	}
	return jwt.SigningMethodHS256.Alg()
}

// Issue signs a stateless session token for user.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(t.alg(), result).Inc()
	}()
	now := t.now().UTC()

	claims := authz.SessionClaims{
		Username: user.Username,
		Verified: user.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	var (
		signed string
		err    error
	)
	switch {
	case t.signer != nil:
		signed, err = t.signer.Sign(claims)
	case len(t.cfg.SigningKey) > 0:
		signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.SigningKey)
	default:
		err = ErrNoSigningKey
	}
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("issued session token",
		"user_id", user.ID,
		"alg", t.alg(),
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)

	return &dto.TokenResponse{
		Token:     signed,
		ExpiresIn: int64(t.cfg.TTL.Seconds()),
	}, nil
}
