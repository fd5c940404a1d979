package domain

import "time"

// Message is an anonymous note left for a user. Rows are only ever
// inserted or deleted, never updated.
type Message struct {
	ID        MessageID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID    UserID    `gorm:"type:uuid;not null;index:idx_messages_user_created,priority:1" db:"user_id" json:"userId"`
	Content   string    `gorm:"type:text;not null" db:"content" json:"content"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_user_created,priority:2" db:"created_at" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
