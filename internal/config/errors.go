package config

import "errors"

var (
	// ErrInvalidBinding is returned when a binding entry cannot be turned
	// into an action
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrInvalidConfig is returned when a setting is out of range
	ErrInvalidConfig = errors.New("invalid configuration")
)
