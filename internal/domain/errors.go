package domain

import "errors"

var (
	ErrUnauthenticated     = errors.New("not logged in")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotAccepting        = errors.New("user is not accepting messages")
	ErrNotFoundOrForbidden = errors.New("message not found or not owned by caller")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
)
