package store

import (
	"context"
	"time"

	"inkognito/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationStore struct{ db *gorm.DB }

func (s *Store) Verifications() *VerificationStore { return &VerificationStore{db: s.DB} }

// Replace stores v as the user's only outstanding code, overwriting any
// previous one.
func (vs *VerificationStore) Replace(ctx context.Context, v *domain.EmailVerification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return vs.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "created_at"}),
	}).Create(v).Error
}

func (vs *VerificationStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailVerification, error) {
	var out domain.EmailVerification
	if err := vs.db.WithContext(ctx).Where("user_id = ?", userID).Take(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (vs *VerificationStore) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return vs.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.EmailVerification{}).Error
}

// PurgeExpired removes codes whose validity window closed before now.
func (vs *VerificationStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := vs.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.EmailVerification{})
	return tx.RowsAffected, tx.Error
}
