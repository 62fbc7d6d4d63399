package redis

import "errors"

var (
	ErrInvalidConnectionURL = errors.New("failed to parse redis connection string")
	ErrNotReady             = errors.New("redis connection is not ready")
	ErrHealthcheckFailed    = errors.New("redis healthcheck failed")
)
