package risk

import "errors"

var (
	ErrInvalidIP         = errors.New("invalid ip address")
	ErrEnforcementFailed = errors.New("block enforcement failed")
	ErrNotWhitelisted    = errors.New("ip is not whitelisted")
	ErrWhitelisted       = errors.New("ip is whitelisted")
	ErrInvalidSettings   = errors.New("invalid engine settings")
)
