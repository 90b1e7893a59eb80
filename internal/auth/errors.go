package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrRateLimited        = errors.New("too many verification attempts")
	ErrNoPendingLogin     = errors.New("no second-factor verification pending")
	ErrSendFailed         = errors.New("failed to dispatch verification code")
)
