package service

import (
	"context"

	"inkognito/internal/domain"
)

type AcceptanceService interface {
	Get(ctx context.Context, userID domain.UserID) (bool, error)
	Set(ctx context.Context, userID domain.UserID, accepting bool) error
}
