package store

import (
	"context"

	"inkognito/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{db: s.DB} }

func (m *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return translate(m.db.WithContext(ctx).Create(msg).Error)
}

func (m *MessageStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	msgs := make([]domain.Message, 0)
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteOwned deletes the message only when it belongs to userID, in a
// single statement. It returns the number of rows removed.
func (m *MessageStore) DeleteOwned(ctx context.Context, userID, messageID uuid.UUID) (int64, error) {
	tx := m.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&domain.Message{})
	return tx.RowsAffected, tx.Error
}

func (m *MessageStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := m.db.WithContext(ctx).Model(&domain.Message{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
