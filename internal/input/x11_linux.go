//go:build linux

package input

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"kbmouse/internal/binding"
)

// X11 implementation: core keyboard grab on the root window, XTEST for
// synthesized input.

func init() {
	openers[BackendX11] = openX11
}

// x11Events is the part of the X connection the read loop consumes
type x11Events interface {
	WaitForEvent() (xgb.Event, xgb.Error)
	PollForEvent() (xgb.Event, xgb.Error)
}

type x11Backend struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	root   xproto.Window
	opts   Options
	logger *slog.Logger

	src    x11Events
	keysym func(xproto.Keycode) binding.Key
	send   func(eventType, detail byte) error
	warp   func(x, y int16) error

	// key events faked by InjectKey come back to us through the grab
	echoes echoFilter

	mu      sync.Mutex
	grabbed bool

	events    chan KeyEvent
	closeOnce sync.Once
}

func openX11(opts Options) (Backend, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := xtest.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("XTEST extension not available: %w", err)
	}
	keybind.Initialize(xu)

	b := &x11Backend{
		xu:     xu,
		conn:   xu.Conn(),
		root:   xu.RootWin(),
		opts:   opts,
		logger: opts.logger().With("backend", BackendX11),
		src:    xu.Conn(),
		keysym: func(code xproto.Keycode) binding.Key {
			return binding.Key(keybind.KeysymGet(xu, code, 0))
		},
		events: make(chan KeyEvent, 256),
	}
	b.send = b.fake
	b.warp = b.warpChecked
	go b.readLoop()
	return b, nil
}

// Start grabs the keyboard on the root window
func (b *x11Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.grabbed {
		return ErrAlreadyGrabbed
	}

	if b.opts.ReleaseHeld {
		if err := b.releaseHeldKeys(); err != nil {
			b.logger.Warn("Failed to release held keys", "error", err)
		}
	}

	grab := func() (*xproto.GrabKeyboardReply, error) {
		return xproto.GrabKeyboard(
			b.conn,
			false,
			b.root,
			xproto.TimeCurrentTime,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Reply()
	}

	reply, err := grab()
	if err != nil {
		return fmt.Errorf("keyboard grab failed: %w", err)
	}
	if reply.Status == xproto.GrabStatusAlreadyGrabbed {
		xproto.UngrabKeyboard(b.conn, xproto.TimeCurrentTime)
		if reply, err = grab(); err != nil {
			return fmt.Errorf("keyboard grab failed: %w", err)
		}
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("%w: grab status %d", ErrNoKeyboards, reply.Status)
	}

	b.grabbed = true
	b.logger.Info("Grabbed keyboard", "root", b.root)
	return nil
}

// Stop releases the keyboard grab
func (b *x11Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.grabbed {
		return nil
	}
	b.grabbed = false
	if err := xproto.UngrabKeyboardChecked(b.conn, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("keyboard ungrab failed: %w", err)
	}
	b.logger.Info("Ungrabbed keyboard")
	return nil
}

func (b *x11Backend) Events() <-chan KeyEvent {
	return b.events
}

// Close releases the grab and disconnects from the X server
func (b *x11Backend) Close() error {
	err := b.Stop()
	b.closeOnce.Do(func() {
		b.conn.Close()
	})
	return err
}

// readLoop translates X key events until the connection closes. Events this
// client faked through XTEST are dropped, and so is autorepeat.
func (b *x11Backend) readLoop() {
	defer close(b.events)

	var pending xgb.Event
	for {
		ev := pending
		pending = nil
		if ev == nil {
			var xerr xgb.Error
			ev, xerr = b.src.WaitForEvent()
			if ev == nil && xerr == nil {
				return
			}
			if xerr != nil {
				b.logger.Debug("X error", "error", xerr)
				continue
			}
		}

		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			if b.echoes.consume(byte(e.Detail), true) {
				continue
			}
			b.emit(e.Detail, true)
		case xproto.KeyReleaseEvent:
			if b.echoes.consume(byte(e.Detail), false) {
				continue
			}
			next, _ := b.src.PollForEvent()
			if isAutorepeat(e, next) {
				continue
			}
			pending = next
			b.emit(e.Detail, false)
		}
	}
}

// isAutorepeat reports whether a release and the event queued right after it
// form an autorepeat pair: a press of the same keycode at the same time.
func isAutorepeat(release xproto.KeyReleaseEvent, next xgb.Event) bool {
	press, ok := next.(xproto.KeyPressEvent)
	return ok && press.Detail == release.Detail && press.Time == release.Time
}

func (b *x11Backend) emit(code xproto.Keycode, pressed bool) {
	b.events <- KeyEvent{
		Key:       b.keysym(code),
		Code:      uint16(code),
		Pressed:   pressed,
		Timestamp: time.Now().UnixMilli(),
	}
}

// echoFilter counts key events faked through XTEST that have not come back
// yet. The core keyboard grab delivers them to us like physical input; they
// still update the server's keyboard state, which is what synthesized clicks
// carry to applications.
type echoFilter struct {
	mu      sync.Mutex
	pending map[echoKey]int
}

type echoKey struct {
	code    byte
	pressed bool
}

func (f *echoFilter) expect(code byte, pressed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		f.pending = make(map[echoKey]int)
	}
	f.pending[echoKey{code, pressed}]++
}

// consume reports whether the event is an expected echo and forgets it
func (f *echoFilter) consume(code byte, pressed bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := echoKey{code, pressed}
	if f.pending[k] == 0 {
		return false
	}
	f.pending[k]--
	if f.pending[k] == 0 {
		delete(f.pending, k)
	}
	return true
}

// releaseHeldKeys sends a synthetic release for every key that is currently
// down, so keys held while the program starts (Return in a terminal) do not
// repeat forever once their real release is swallowed by the grab.
func (b *x11Backend) releaseHeldKeys() error {
	reply, err := xproto.QueryKeymap(b.conn).Reply()
	if err != nil {
		return err
	}
	for i := 8; i < len(reply.Keys)*8; i++ {
		if reply.Keys[i/8]>>(i%8)&1 == 0 {
			continue
		}
		code := xproto.Keycode(i)
		key := b.keysym(code)
		if b.opts.passthrough(key) {
			continue
		}
		if err := b.send(xproto.KeyRelease, byte(code)); err != nil {
			return err
		}
		b.logger.Debug("Released held key", "key", binding.KeyName(key))
	}
	return nil
}

func (b *x11Backend) fake(eventType byte, detail byte) error {
	return xtest.FakeInputChecked(b.conn, eventType, detail, 0, xproto.WindowNone, 0, 0, 0).Check()
}

// InjectKey fakes a key event. While the keyboard is grabbed the event is
// delivered back to this client, and readLoop drops it.
func (b *x11Backend) InjectKey(code uint16, pressed bool) error {
	eventType := byte(xproto.KeyRelease)
	if pressed {
		eventType = xproto.KeyPress
	}

	b.mu.Lock()
	grabbed := b.grabbed
	b.mu.Unlock()

	if grabbed {
		b.echoes.expect(byte(code), pressed)
	}
	if err := b.send(eventType, byte(code)); err != nil {
		if grabbed {
			b.echoes.consume(byte(code), pressed)
		}
		return err
	}
	return nil
}

func (b *x11Backend) InjectButton(id uint, pressed bool) error {
	if id == 0 || id > 255 {
		return fmt.Errorf("invalid button number: %d", id)
	}
	if pressed {
		return b.send(xproto.ButtonPress, byte(id))
	}
	return b.send(xproto.ButtonRelease, byte(id))
}

// WarpPointer moves the pointer to the integer part of (x, y)
func (b *x11Backend) WarpPointer(x, y float64) error {
	if err := b.warp(int16(x), int16(y)); err != nil {
		return fmt.Errorf("warp pointer: %w", err)
	}
	return nil
}

func (b *x11Backend) warpChecked(x, y int16) error {
	return xproto.WarpPointerChecked(b.conn, xproto.WindowNone, b.root, 0, 0, 0, 0, x, y).Check()
}

func (b *x11Backend) PointerPosition() (float64, float64, error) {
	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return float64(reply.RootX), float64(reply.RootY), nil
}
