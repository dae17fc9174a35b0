//go:build linux

package input

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"kbmouse/internal/binding"
)

// queuedEvents stands in for the X connection. Closing ch ends the read loop.
type queuedEvents struct {
	ch chan xgb.Event
}

func (q *queuedEvents) WaitForEvent() (xgb.Event, xgb.Error) {
	ev, ok := <-q.ch
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (q *queuedEvents) PollForEvent() (xgb.Event, xgb.Error) {
	select {
	case ev, ok := <-q.ch:
		if !ok {
			return nil, nil
		}
		return ev, nil
	default:
		return nil, nil
	}
}

const (
	shiftCode xproto.Keycode = 50
	aCode     xproto.Keycode = 38
)

// newGrabbedX11 returns a backend whose faked key events are delivered back
// to it, as the server does while the keyboard is grabbed.
func newGrabbedX11(src *queuedEvents, sent *[]byte) *x11Backend {
	b := &x11Backend{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		src:    src,
		keysym: func(code xproto.Keycode) binding.Key {
			if code == shiftCode {
				return binding.KeyShiftL
			}
			return binding.Key('a')
		},
		events:  make(chan KeyEvent, 16),
		grabbed: true,
	}
	b.send = func(eventType, detail byte) error {
		*sent = append(*sent, eventType)
		switch eventType {
		case xproto.KeyPress:
			src.ch <- xproto.KeyPressEvent{Detail: xproto.Keycode(detail)}
		case xproto.KeyRelease:
			src.ch <- xproto.KeyReleaseEvent{Detail: xproto.Keycode(detail)}
		}
		return nil
	}
	return b
}

func nextEvent(t *testing.T, events <-chan KeyEvent) KeyEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("Expected an event, channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for an event")
	}
	return KeyEvent{}
}

func TestForwardedModifierIsNotDispatchedAgain(t *testing.T) {
	src := &queuedEvents{ch: make(chan xgb.Event, 16)}
	var sent []byte
	b := newGrabbedX11(src, &sent)
	go b.readLoop()

	src.ch <- xproto.KeyPressEvent{Detail: shiftCode, Time: 1}
	ev := nextEvent(t, b.events)
	if ev.Key != binding.KeyShiftL || !ev.Pressed {
		t.Fatalf("Expected Shift_L press, got %+v", ev)
	}
	if err := b.InjectKey(ev.Code, ev.Pressed); err != nil {
		t.Fatal(err)
	}

	src.ch <- xproto.KeyReleaseEvent{Detail: shiftCode, Time: 2}
	ev = nextEvent(t, b.events)
	if ev.Key != binding.KeyShiftL || ev.Pressed {
		t.Fatalf("Expected Shift_L release after the forwarded press, got %+v", ev)
	}
	if err := b.InjectKey(ev.Code, ev.Pressed); err != nil {
		t.Fatal(err)
	}

	src.ch <- xproto.KeyPressEvent{Detail: aCode, Time: 3}
	ev = nextEvent(t, b.events)
	if ev.Code != uint16(aCode) || !ev.Pressed {
		t.Fatalf("Expected a press after the forwarded release, got %+v", ev)
	}

	close(src.ch)
	for ev := range b.events {
		t.Errorf("Unexpected event %+v", ev)
	}
	if len(sent) != 2 {
		t.Errorf("Expected 2 faked events, got %d", len(sent))
	}
}

func TestInjectKeyWithoutGrabExpectsNoEcho(t *testing.T) {
	src := &queuedEvents{ch: make(chan xgb.Event, 16)}
	var sent []byte
	b := newGrabbedX11(src, &sent)
	b.grabbed = false

	if err := b.InjectKey(uint16(shiftCode), true); err != nil {
		t.Fatal(err)
	}
	if b.echoes.consume(byte(shiftCode), true) {
		t.Error("Expected no echo to be recorded without a grab")
	}
}

func TestEchoFilter(t *testing.T) {
	var f echoFilter
	if f.consume(50, true) {
		t.Error("Expected empty filter to consume nothing")
	}

	f.expect(50, true)
	f.expect(50, true)
	if f.consume(50, false) {
		t.Error("Expected release not to match an expected press")
	}
	if f.consume(51, true) {
		t.Error("Expected other keycode not to match")
	}
	if !f.consume(50, true) || !f.consume(50, true) {
		t.Error("Expected both expected presses to be consumed")
	}
	if f.consume(50, true) {
		t.Error("Expected the filter to be drained")
	}
}

func TestIsAutorepeat(t *testing.T) {
	release := xproto.KeyReleaseEvent{Detail: 38, Time: 100}
	tests := []struct {
		name string
		next xgb.Event
		want bool
	}{
		{"press same key same time", xproto.KeyPressEvent{Detail: 38, Time: 100}, true},
		{"press same key later", xproto.KeyPressEvent{Detail: 38, Time: 130}, false},
		{"press other key same time", xproto.KeyPressEvent{Detail: 39, Time: 100}, false},
		{"release", xproto.KeyReleaseEvent{Detail: 38, Time: 100}, false},
		{"nothing queued", nil, false},
	}
	for _, tt := range tests {
		if got := isAutorepeat(release, tt.next); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestWarpPointerReportsFailure(t *testing.T) {
	src := &queuedEvents{ch: make(chan xgb.Event, 1)}
	var sent []byte
	b := newGrabbedX11(src, &sent)

	var gotX, gotY int16
	b.warp = func(x, y int16) error {
		gotX, gotY = x, y
		return nil
	}
	if err := b.WarpPointer(12.9, -3.2); err != nil {
		t.Fatalf("WarpPointer failed: %v", err)
	}
	if gotX != 12 || gotY != -3 {
		t.Errorf("Expected warp to (12,-3), got (%d,%d)", gotX, gotY)
	}

	failure := errors.New("BadWindow")
	b.warp = func(x, y int16) error { return failure }
	if err := b.WarpPointer(1, 1); !errors.Is(err, failure) {
		t.Errorf("Expected warp error to be returned, got %v", err)
	}
}
