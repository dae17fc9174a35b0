package input

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no backend exists for this OS
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrUnknownBackend is returned for a backend name Open does not know
	ErrUnknownBackend = errors.New("unknown input backend")

	// ErrNoKeyboards is returned when no keyboard could be grabbed
	ErrNoKeyboards = errors.New("no keyboard devices were grabbed")

	// ErrAlreadyGrabbed is returned when Start is called twice
	ErrAlreadyGrabbed = errors.New("keyboard already grabbed")
)
