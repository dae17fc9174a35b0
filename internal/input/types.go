// Package input grabs keyboard input and synthesizes pointer and key events.
// Platform backends live in per-backend files; Open selects one by name.
package input

import (
	"log/slog"

	"kbmouse/internal/binding"
)

// KeyEvent is a key press or release read from a grabbed keyboard
type KeyEvent struct {
	Key       binding.Key // keysym at shift level 0
	Code      uint16      // backend keycode, used to re-inject the key
	Pressed   bool
	Timestamp int64 // Unix ms timestamp
}

// DeviceInfo describes a keyboard-class input device
type DeviceInfo struct {
	Path string
	Name string
}

// Capture grabs keyboards exclusively and delivers their key events
type Capture interface {
	// Start grabs the keyboard(s).
	Start() error
	// Stop releases the grab.
	Stop() error
	// Events delivers key events while grabbed. The channel is closed when
	// the backend is closed.
	Events() <-chan KeyEvent
}

// Injector synthesizes input on behalf of the user
type Injector interface {
	InjectKey(code uint16, pressed bool) error
	InjectButton(id uint, pressed bool) error
	WarpPointer(x, y float64) error
	PointerPosition() (x, y float64, err error)
}

// Backend is a complete platform input backend
type Backend interface {
	Capture
	Injector
	Close() error
}

// Options configure a backend
type Options struct {
	// Devices restricts evdev to the given device paths. Empty means every
	// keyboard-class device.
	Devices []string

	// ReleaseHeld makes Start deal with keys that are down when the grab
	// begins, so they do not stay stuck for other applications. Keys
	// reported by Passthrough are left alone.
	ReleaseHeld bool

	// Passthrough reports keys that are forwarded while grabbed.
	Passthrough func(binding.Key) bool

	Logger *slog.Logger
}

func (o Options) passthrough(k binding.Key) bool {
	return o.Passthrough != nil && o.Passthrough(k)
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
