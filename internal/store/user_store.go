package store

import (
	"context"
	"time"

	"inkognito/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	return translate(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.first(ctx, "id = ?", id)
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.first(ctx, "email = ?", email)
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.first(ctx, "username = ?", username)
}

func (u *UserStore) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UsernameExists reports whether any account, verified or not, holds username.
func (u *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := u.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Refresh rewrites the username of a still-unverified account that is
// signing up again with the same email.
func (u *UserStore) Refresh(ctx context.Context, userID uuid.UUID, username string, at time.Time) error {
	return translate(u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND email_verified = ?", userID, false).
		Updates(map[string]any{"username": username, "updated_at": at}).Error)
}

func (u *UserStore) SetEmailVerified(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"email_verified": true, "updated_at": at}).Error
}

// GetAcceptance reads only the acceptance flag.
func (u *UserStore) GetAcceptance(ctx context.Context, userID uuid.UUID) (bool, error) {
	var user domain.User
	err := u.db.WithContext(ctx).Select("id", "is_accepting_message").Where("id = ?", userID).Take(&user).Error
	if err != nil {
		return false, translate(err)
	}
	return user.IsAcceptingMessage, nil
}

// SetAcceptance overwrites the flag unconditionally. ErrRecordNotFound is
// returned when no user row matched.
func (u *UserStore) SetAcceptance(ctx context.Context, userID uuid.UUID, accepting bool, at time.Time) error {
	tx := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"is_accepting_message": accepting, "updated_at": at})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
