package binding

import "errors"

var (
	// ErrUnknownKey is returned when a key name has no keysym
	ErrUnknownKey = errors.New("unknown key name")
)
