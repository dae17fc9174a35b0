package input

import (
	"errors"
	"testing"

	"kbmouse/internal/binding"
)

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("wayland", Options{})
	if !errors.Is(err, ErrUnknownBackend) && !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("Expected ErrUnknownBackend or ErrUnsupportedPlatform, got %v", err)
	}
}

func TestAvailableMatchesRegisteredOpeners(t *testing.T) {
	names := Available()
	if len(names) != len(openers) {
		t.Errorf("Expected %d backends, got %v", len(openers), names)
	}
	for _, n := range names {
		if _, ok := openers[n]; !ok {
			t.Errorf("Backend %q listed but not registered", n)
		}
	}
}

func TestOptionsPassthrough(t *testing.T) {
	var opts Options
	if opts.passthrough(binding.KeyShiftL) {
		t.Error("Expected no passthrough without a predicate")
	}
	if opts.logger() == nil {
		t.Error("Expected a default logger")
	}

	opts.Passthrough = func(k binding.Key) bool { return k == binding.KeyShiftL }
	if !opts.passthrough(binding.KeyShiftL) {
		t.Error("Expected Shift_L to pass through")
	}
	if opts.passthrough(binding.Key('a')) {
		t.Error("Expected a to be grabbed")
	}
}
