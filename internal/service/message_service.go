package service

import (
	"context"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
)

type MessageService interface {
	// Send stores an anonymous message for the named recipient.
	Send(ctx context.Context, r dto.SendMessageRequest) (*domain.Message, error)
	List(ctx context.Context, userID domain.UserID) ([]domain.Message, error)
	Delete(ctx context.Context, userID domain.UserID, messageID domain.MessageID) error
}
