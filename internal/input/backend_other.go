//go:build !linux

package input

// No backends are registered on this platform, so Open returns
// ErrUnsupportedPlatform.

// ListKeyboards is only available with the evdev backend
func ListKeyboards() ([]DeviceInfo, error) {
	return nil, ErrUnsupportedPlatform
}
