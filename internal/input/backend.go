package input

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendX11   = "x11"
	BackendEvdev = "evdev"
)

var openers = map[string]func(Options) (Backend, error){}

// Open creates the named backend. Available backends depend on the platform.
func Open(name string, opts Options) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	open, ok := openers[name]
	if !ok {
		if len(openers) == 0 {
			return nil, ErrUnsupportedPlatform
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return open(opts)
}

// Available lists the backend names usable on this platform.
func Available() []string {
	names := make([]string, 0, len(openers))
	for _, n := range []string{BackendX11, BackendEvdev} {
		if _, ok := openers[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
