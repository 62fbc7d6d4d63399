package account

import "errors"

var (
	ErrNotFound           = errors.New("account: user not found")
	ErrEmailTaken         = errors.New("account: email already registered")
	ErrInvalidCredentials = errors.New("account: invalid email or password")
	ErrEmailNotVerified   = errors.New("account: email not verified")
	ErrAlreadyVerified    = errors.New("account: email already verified")
	ErrTokenNotFound      = errors.New("account: verification token not found")
	ErrTokenExpired       = errors.New("account: verification token expired")
)
