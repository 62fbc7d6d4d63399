package billing

import "errors"

var (
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	ErrUpstreamProvider = errors.New("billing: payment provider call failed")
)
