package license

import "errors"

var (
	ErrMissingSigningKey = errors.New("license: missing signing key")
	ErrInvalidToken      = errors.New("license: invalid token")
	ErrNotFound          = errors.New("license: not found")
	ErrExpired           = errors.New("license: expired")
	ErrDeviceMismatch    = errors.New("license: bound to another device")
)
