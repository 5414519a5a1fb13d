package state

import "errors"

var (
	ErrClosed       = errors.New("state store is closed")
	ErrInvalidTheme = errors.New("theme must be one of: default elderly")
)
