package service

import (
	"context"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
)

type TokenService interface {
	Issue(ctx context.Context, user *domain.User) (*dto.TokenResponse, error)
}
