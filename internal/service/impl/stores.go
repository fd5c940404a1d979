package impl

import (
	"context"
	"errors"
	"time"

	"inkognito/internal/domain"
	"inkognito/internal/store"

	"github.com/google/uuid"
)

// The services depend on these narrow views of the store so tests can
// swap in fakes where a database is not wanted.

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
	storeTx
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	Verifications() verificationStore
	Messages() messageStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Refresh(ctx context.Context, userID uuid.UUID, username string, at time.Time) error
	SetEmailVerified(ctx context.Context, userID uuid.UUID, at time.Time) error
	GetAcceptance(ctx context.Context, userID uuid.UUID) (bool, error)
	SetAcceptance(ctx context.Context, userID uuid.UUID, accepting bool, at time.Time) error
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type verificationStore interface {
	Replace(ctx context.Context, v *domain.EmailVerification) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailVerification, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

type messageStore interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Message, error)
	DeleteOwned(ctx context.Context, userID, messageID uuid.UUID) (int64, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func newStoreAdapter(st *store.Store) gormStoreAdapter { return gormStoreAdapter{store: st} }

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormStoreAdapter{store: tx})
	})
}

func (g gormStoreAdapter) Users() userStore                 { return g.store.Users() }
func (g gormStoreAdapter) Credentials() credentialStore     { return g.store.Credentials() }
func (g gormStoreAdapter) Verifications() verificationStore { return g.store.Verifications() }
func (g gormStoreAdapter) Messages() messageStore           { return g.store.Messages() }
