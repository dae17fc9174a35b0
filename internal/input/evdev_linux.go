//go:build linux

package input

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"kbmouse/internal/binding"
	"kbmouse/internal/osutils"
)

// evdev implementation: EVIOCGRAB on keyboard event devices, output through
// a uinput virtual device.

const (
	deviceGlob = "/dev/input/event*"

	// how long Start waits for keys held at startup to be released
	releaseWait = 2 * time.Second
)

func init() {
	openers[BackendEvdev] = openEvdev
}

type grabbedDevice struct {
	path string
	name string
	file *os.File
}

type evdevBackend struct {
	opts   Options
	logger *slog.Logger
	out    *uinputDevice

	mu      sync.Mutex
	devices []*grabbedDevice
	stop    chan struct{}
	wg      sync.WaitGroup

	events    chan KeyEvent
	closeOnce sync.Once
}

func openEvdev(opts Options) (Backend, error) {
	if !osutils.CanAccess(uinputPath) {
		return nil, fmt.Errorf("cannot open %s for writing; run as root or grant the input group access", uinputPath)
	}
	logger := opts.logger().With("backend", BackendEvdev)
	out, err := newUinputDevice()
	if err != nil {
		return nil, err
	}
	logger.Info("Created virtual device", "name", uinputName)

	return &evdevBackend{
		opts:   opts,
		logger: logger,
		out:    out,
		events: make(chan KeyEvent, 256),
	}, nil
}

// ListKeyboards returns the keyboard-class event devices that can be opened
func ListKeyboards() ([]DeviceInfo, error) {
	paths, err := filepath.Glob(deviceGlob)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var keyboards []DeviceInfo
	var lastErr error
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_RDONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		info, ok := probeKeyboard(f, p)
		f.Close()
		if ok {
			keyboards = append(keyboards, info)
		}
	}
	if len(keyboards) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return keyboards, nil
}

func probeKeyboard(f *os.File, path string) (DeviceInfo, bool) {
	name, err := deviceName(f)
	if err != nil || name == uinputName {
		return DeviceInfo{}, false
	}
	bits, err := keyBits(f)
	if err != nil || !isKeyboard(bits) {
		return DeviceInfo{}, false
	}
	return DeviceInfo{Path: path, Name: name}, true
}

// Start grabs every configured keyboard, or every keyboard-class device when
// none are configured. Devices that fail to grab are skipped.
func (b *evdevBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.devices != nil {
		return ErrAlreadyGrabbed
	}

	candidates := b.opts.Devices
	explicit := len(candidates) > 0
	if !explicit {
		keyboards, err := ListKeyboards()
		if err != nil {
			return fmt.Errorf("failed to list keyboards: %w", err)
		}
		for _, k := range keyboards {
			candidates = append(candidates, k.Path)
		}
	}

	var grabbed []*grabbedDevice
	for _, path := range candidates {
		dev, err := b.grab(path, explicit)
		if err != nil {
			b.logger.Warn("Failed to grab device", "path", path, "error", err)
			continue
		}
		if dev == nil {
			continue
		}
		grabbed = append(grabbed, dev)
		b.logger.Info("Grabbed device", "path", dev.path, "name", dev.name)
	}
	if len(grabbed) == 0 {
		return ErrNoKeyboards
	}

	b.devices = grabbed
	b.stop = make(chan struct{})
	for _, dev := range grabbed {
		b.wg.Add(1)
		go b.readLoop(dev, b.stop)
	}
	return nil
}

func (b *evdevBackend) grab(path string, explicit bool) (*grabbedDevice, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	info, ok := probeKeyboard(f, path)
	if !ok {
		f.Close()
		if explicit {
			return nil, fmt.Errorf("%s is not a keyboard", path)
		}
		return nil, nil
	}

	if b.opts.ReleaseHeld {
		b.waitForRelease(f, info.Name)
	}

	if err := ioctlInt(f, eviocgrab, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("EVIOCGRAB: %w", err)
	}
	return &grabbedDevice{path: path, name: info.Name, file: f}, nil
}

// waitForRelease blocks until no key other than a passthrough key is held on
// the device. A key that is down when the grab starts would otherwise never
// see its release outside the grab and stay stuck.
func (b *evdevBackend) waitForRelease(f *os.File, name string) {
	deadline := time.Now().Add(releaseWait)
	for {
		state, err := keyState(f)
		if err != nil {
			return
		}
		held := b.heldKeys(state)
		if len(held) == 0 {
			return
		}
		if time.Now().After(deadline) {
			b.logger.Warn("Grabbing with keys still held", "device", name, "keys", held)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (b *evdevBackend) heldKeys(state []byte) []string {
	var held []string
	for code := 1; code < 256; code++ {
		if !bitSet(state, code) {
			continue
		}
		key := keysymForCode(uint16(code))
		if key != 0 && b.opts.passthrough(key) {
			continue
		}
		held = append(held, binding.KeyName(key))
	}
	return held
}

func (b *evdevBackend) readLoop(dev *grabbedDevice, stop <-chan struct{}) {
	defer b.wg.Done()

	buf := make([]byte, eventSize*64)
	for {
		n, err := dev.file.Read(buf)
		if err != nil {
			select {
			case <-stop:
			default:
				b.logger.Error("Device read failed", "path", dev.path, "error", err)
			}
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			ev := decodeEvent(buf[off : off+eventSize])
			if ev.Type != evKey || ev.Value == keyRepeated {
				continue
			}
			ke := KeyEvent{
				Key:       keysymForCode(ev.Code),
				Code:      ev.Code,
				Pressed:   ev.Value == keyPressed,
				Timestamp: time.Now().UnixMilli(),
			}
			select {
			case b.events <- ke:
			case <-stop:
				return
			}
		}
	}
}

// Stop ungrabs and closes every device
func (b *evdevBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.devices == nil {
		return nil
	}
	close(b.stop)

	var errs []error
	for _, dev := range b.devices {
		if err := ioctlInt(dev.file, eviocgrab, 0); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dev.path, err))
		}
		dev.file.Close()
		b.logger.Info("Ungrabbed device", "path", dev.path, "name", dev.name)
	}
	b.wg.Wait()
	b.devices = nil
	return errors.Join(errs...)
}

func (b *evdevBackend) Events() <-chan KeyEvent {
	return b.events
}

// Close ungrabs all devices and destroys the virtual device
func (b *evdevBackend) Close() error {
	err := b.Stop()
	b.closeOnce.Do(func() {
		close(b.events)
		if cerr := b.out.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	})
	return err
}

func (b *evdevBackend) InjectKey(code uint16, pressed bool) error {
	return b.out.key(code, pressed)
}

func (b *evdevBackend) InjectButton(id uint, pressed bool) error {
	return b.out.button(id, pressed)
}

func (b *evdevBackend) WarpPointer(x, y float64) error {
	return b.out.warp(x, y)
}

// PointerPosition always reports the origin: a relative virtual device cannot
// observe where the pointer is, and only deltas reach the kernel.
func (b *evdevBackend) PointerPosition() (float64, float64, error) {
	return 0, 0, nil
}
