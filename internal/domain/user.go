package domain

import "time"

type User struct {
	ID                 UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email              string    `gorm:"type:citext;uniqueIndex:ux_users_email;not null" db:"email" json:"email"`
	Username           string    `gorm:"type:citext;uniqueIndex:ux_users_username;not null" db:"username" json:"username"`
	EmailVerified      bool      `gorm:"not null;default:false" db:"email_verified" json:"isVerified"`
	IsAcceptingMessage bool      `gorm:"not null;default:true" db:"is_accepting_message" json:"isAcceptingMessage"`
	CreatedAt          time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// EmailVerification holds the single outstanding signup code for a user.
// Only the sha256 of the code is stored.
type EmailVerification struct {
	ID        VerificationID `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID         `gorm:"type:uuid;uniqueIndex:ux_email_verifications_user;not null" db:"user_id"`
	CodeHash  []byte         `gorm:"type:bytea;not null" db:"code_hash"`
	ExpiresAt time.Time      `gorm:"not null;index" db:"expires_at"`
	CreatedAt time.Time      `gorm:"not null" db:"created_at"`
}

func (EmailVerification) TableName() string { return "email_verifications" }

func (v *EmailVerification) Expired(now time.Time) bool { return !now.Before(v.ExpiresAt) }
