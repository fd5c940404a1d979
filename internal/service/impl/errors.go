package impl

import "errors"

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrNoSigningKey  = errors.New("no signing key configured")
)
