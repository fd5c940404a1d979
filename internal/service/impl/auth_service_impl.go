package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
	"inkognito/internal/events"
	"inkognito/internal/observability/metrics"
	"inkognito/internal/observability/middleware"
	"inkognito/internal/service"
	"inkognito/internal/store"
	"inkognito/internal/validate"

	"github.com/google/uuid"
)

const (
	DefaultVerificationTTL = time.Hour
	mailTimeout            = 30 * time.Second
)

type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Mailer          service.EmailService
	Events          events.Publisher
	VerificationTTL time.Duration

	now      func() time.Time
	newCode  func() (string, error)
	dispatch func(func())
}

func NewAuthServiceImpl(
	st *store.Store,
	passwordService service.PasswordService,
	tokenService service.TokenService,
	mailer service.EmailService,
	pub events.Publisher,
	verificationTTL time.Duration,
) *AuthServiceImpl {
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTTL
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &AuthServiceImpl{
		Store:           newStoreAdapter(st),
		PasswordService: passwordService,
		TService:        tokenService,
		Mailer:          mailer,
		Events:          pub,
		VerificationTTL: verificationTTL,
		now:             time.Now,
		newCode:         randomCode,
		dispatch:        func(fn func()) { go fn() },
	}
}

func (a *AuthServiceImpl) Signup(ctx context.Context, r dto.SignupRequest) (*dto.SignupResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthSignupsTotal.WithLabelValues(result).Inc()
	}()

	r.Username = validate.NormalizeUsername(r.Username)
	r.Email = validate.NormalizeEmail(r.Email)
	if err := validate.Collect(
		validate.Username(r.Username),
		validate.Email(r.Email),
		validate.Password(r.Password),
	); err != nil {
		result = "invalid"
		return nil, err
	}

	// Hash outside the transaction; argon2 is deliberately slow.
	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := a.newCode()
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("generate code: %w", err)
	}

	var user *domain.User
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		now := a.now().UTC()

		existing, err := tx.Users().GetByEmail(ctx, r.Email)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			existing = nil
		case err != nil:
			return err
		case existing.EmailVerified:
			return domain.ErrEmailTaken
		}

		holder, err := tx.Users().GetByUsername(ctx, r.Username)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
		case err != nil:
			return err
		case existing == nil || holder.ID != existing.ID:
			return domain.ErrUsernameTaken
		}

		if existing != nil {
			// unverified account signing up again: take the new details
			if err := tx.Users().Refresh(ctx, existing.ID, r.Username, now); err != nil {
				return err
			}
			existing.Username = r.Username
			user = existing
		} else {
			user = &domain.User{
				ID:                 uuid.New(),
				Email:              r.Email,
				Username:           r.Username,
				EmailVerified:      false,
				IsAcceptingMessage: true,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
		}

		if err := tx.Credentials().UpsertPassword(ctx, &domain.PasswordCredential{
			UserID:      user.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
		}); err != nil {
			return err
		}

		return tx.Verifications().Replace(ctx, &domain.EmailVerification{
			UserID:    user.ID,
			CodeHash:  hashCode(code),
			ExpiresAt: now.Add(a.VerificationTTL),
			CreatedAt: now,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrUsernameTaken):
			result = "conflict"
			return nil, err
		case errors.Is(err, store.ErrDuplicate):
			// lost a race with a concurrent signup
			result = "conflict"
			return nil, fmt.Errorf("%w: %v", domain.ErrUsernameTaken, err)
		}
		result = "failure"
		return nil, fmt.Errorf("signup: %w", err)
	}

	a.sendVerification(ctx, user, code)
	a.Events.Publish(ctx, events.UserRegistered{
		UserID:   user.ID.String(),
		Username: user.Username,
		At:       a.now().UTC(),
	})

	slog.Info("user signed up",
		"user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)

	return &dto.SignupResponse{
		UserID:                    user.ID.String(),
		RequiresEmailVerification: true,
	}, nil
}

// sendVerification mails the code in the background. Delivery failures are
// logged and never fail the signup.
func (a *AuthServiceImpl) sendVerification(ctx context.Context, user *domain.User, code string) {
	if a.Mailer == nil {
		return
	}
	to, username := user.Email, user.Username
	logAttrs := middleware.LogAttrs(ctx)
	mailCtx := context.WithoutCancel(ctx)

	a.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(mailCtx, mailTimeout)
		defer cancel()
		if err := a.Mailer.SendVerification(sendCtx, to, username, code); err != nil {
			slog.Error("send verification email", append(logAttrs, "user_id", user.ID, "error", err)...)
		}
	})
}

func (a *AuthServiceImpl) CheckUsername(ctx context.Context, username string) error {
	username = validate.NormalizeUsername(username)
	if err := validate.Collect(validate.Username(username)); err != nil {
		return err
	}
	taken, err := a.Store.Users().UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.ErrUsernameTaken
	}
	return nil
}

func (a *AuthServiceImpl) VerifyCode(ctx context.Context, r dto.VerifyCodeRequest) error {
	result := "success"
	defer func() {
		metrics.AuthVerificationsTotal.WithLabelValues(result).Inc()
	}()

	r.Username = validate.NormalizeUsername(r.Username)
	r.Code = strings.TrimSpace(r.Code)
	if err := validate.Collect(validate.Username(r.Username), validate.Code(r.Code)); err != nil {
		result = "invalid"
		return err
	}

	user, err := a.Store.Users().GetByUsername(ctx, r.Username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "unknown_user"
			return domain.ErrUserNotFound
		}
		result = "failure"
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.EmailVerified {
		result = "already_verified"
		return domain.ErrAlreadyVerified
	}

	v, err := a.Store.Verifications().GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// purged or never issued
			result = "expired"
			return domain.ErrCodeExpired
		}
		result = "failure"
		return fmt.Errorf("lookup code: %w", err)
	}

	now := a.now().UTC()
	if v.Expired(now) {
		result = "expired"
		return domain.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare(v.CodeHash, hashCode(r.Code)) != 1 {
		result = "mismatch"
		return domain.ErrCodeMismatch
	}

	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := tx.Users().SetEmailVerified(ctx, user.ID, now); err != nil {
			return err
		}
		return tx.Verifications().DeleteForUser(ctx, user.ID)
	})
	if err != nil {
		result = "failure"
		return fmt.Errorf("mark verified: %w", err)
	}

	a.Events.Publish(ctx, events.UserVerified{UserID: user.ID.String(), Username: user.Username, At: now})
	return nil
}

func (a *AuthServiceImpl) Signin(ctx context.Context, r dto.SigninRequest) (*dto.TokenResponse, *domain.User, error) {
	result := "success"
	defer func() {
		metrics.AuthSigninsTotal.WithLabelValues(result).Inc()
	}()

	identifier := strings.TrimSpace(r.Identifier)
	if err := validate.Collect(
		validate.Required("identifier", identifier),
		validate.Required("password", r.Password),
	); err != nil {
		result = "invalid"
		return nil, nil, err
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = a.Store.Users().GetByEmail(ctx, validate.NormalizeEmail(identifier))
	} else {
		user, err = a.Store.Users().GetByUsername(ctx, validate.NormalizeUsername(identifier))
	}
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "bad_credentials"
			return nil, nil, domain.ErrInvalidCredentials
		}
		result = "failure"
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	cred, err := a.Store.Credentials().GetPasswordByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "bad_credentials"
			return nil, nil, domain.ErrInvalidCredentials
		}
		result = "failure"
		return nil, nil, fmt.Errorf("lookup credential: %w", err)
	}

	rehash, ok := a.PasswordService.Verify(r.Password, cred)
	if !ok {
		result = "bad_credentials"
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		result = "unverified"
		return nil, nil, domain.ErrEmailNotVerified
	}

	if rehash {
		a.rehash(ctx, cred, r.Password)
	}

	tok, err := a.TService.Issue(ctx, user)
	if err != nil {
		result = "failure"
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, user, nil
}

// rehash upgrades a credential to the current policy. A failure leaves the
// old hash in place and is only logged.
func (a *AuthServiceImpl) rehash(ctx context.Context, cred *domain.PasswordCredential, password string) {
	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(password)
	if err == nil {
		err = a.Store.Credentials().UpsertPassword(ctx, &domain.PasswordCredential{
			UserID:      cred.UserID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
		})
	}
	if err != nil {
		slog.Warn("password rehash failed",
			"user_id", cred.UserID,
			"error", err,
			"request_id", middleware.RequestIDFromContext(ctx),
			"trace_id", middleware.TraceIDFromContext(ctx),
		)
		return
	}
	slog.Info("password rehashed", "user_id", cred.UserID, "algo", algo, "ver", ver)
}

func (a *AuthServiceImpl) Session(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	user, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}
