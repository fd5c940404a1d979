package service

import (
	"context"

	"inkognito/internal/domain"
	"inkognito/internal/dto"
)

type AuthService interface {
	Signup(ctx context.Context, r dto.SignupRequest) (*dto.SignupResponse, error)
	// CheckUsername returns nil when username is valid and unclaimed.
	CheckUsername(ctx context.Context, username string) error
	VerifyCode(ctx context.Context, r dto.VerifyCodeRequest) error
	Signin(ctx context.Context, r dto.SigninRequest) (*dto.TokenResponse, *domain.User, error)
	Session(ctx context.Context, userID domain.UserID) (*domain.User, error)
}
