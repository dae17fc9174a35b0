//go:build linux

package input

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

const (
	uinputPath = "/dev/uinput"
	uinputName = "kbmouse virtual pointer"
)

// uinputDevice is a virtual relative pointer with a full keyboard, used to
// emit motion, buttons, wheel clicks and forwarded modifier keys.
type uinputDevice struct {
	mu   sync.Mutex
	file *os.File

	// integer position last sent, to turn absolute targets into deltas
	x, y int
}

func newUinputDevice() (*uinputDevice, error) {
	f, err := os.OpenFile(uinputPath, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uinputPath, err)
	}
	d := &uinputDevice{file: f}
	if err := d.setup(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create virtual device: %w", err)
	}
	return d, nil
}

func (d *uinputDevice) setup() error {
	for _, ev := range []int{evKey, evRel, evSyn} {
		if err := ioctlInt(d.file, uiSetEvbit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT %d: %w", ev, err)
		}
	}
	for code := 1; code < 256; code++ {
		if err := ioctlInt(d.file, uiSetKeybit, code); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}
	for code := btnLeft; code <= btnExtra; code++ {
		if err := ioctlInt(d.file, uiSetKeybit, code); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}
	for _, rel := range []int{relX, relY, relWheel, relHWheel} {
		if err := ioctlInt(d.file, uiSetRelbit, rel); err != nil {
			return fmt.Errorf("UI_SET_RELBIT %d: %w", rel, err)
		}
	}

	setup := uinputSetup{
		Bustype: busVirtual,
		Vendor:  0x1209,
		Product: 0x6b6d,
		Version: 1,
	}
	copy(setup.Name[:], uinputName)
	err := control(d.file, func(fd int) error {
		return ioctlPtr(fd, uiDevSetup, unsafe.Pointer(&setup))
	})
	if err != nil {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}
	if err := ioctlInt(d.file, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

func (d *uinputDevice) write(evs ...rawEvent) error {
	evs = append(evs, rawEvent{Type: evSyn, Code: synReport})
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.file.Write(encodeEvents(evs))
	return err
}

func (d *uinputDevice) key(code uint16, pressed bool) error {
	value := int32(keyReleased)
	if pressed {
		value = keyPressed
	}
	return d.write(rawEvent{Type: evKey, Code: code, Value: value})
}

func (d *uinputDevice) button(id uint, pressed bool) error {
	evs, err := buttonEvents(id, pressed)
	if err != nil {
		return err
	}
	if len(evs) == 0 {
		return nil
	}
	return d.write(evs...)
}

// buttonEvents maps an X11 button number to evdev events. Wheel buttons
// produce one detent on press and nothing on release.
func buttonEvents(id uint, pressed bool) ([]rawEvent, error) {
	value := int32(keyReleased)
	if pressed {
		value = keyPressed
	}
	wheel := func(code uint16, v int32) []rawEvent {
		if !pressed {
			return nil
		}
		return []rawEvent{{Type: evRel, Code: code, Value: v}}
	}

	switch id {
	case 1:
		return []rawEvent{{Type: evKey, Code: btnLeft, Value: value}}, nil
	case 2:
		return []rawEvent{{Type: evKey, Code: btnMiddle, Value: value}}, nil
	case 3:
		return []rawEvent{{Type: evKey, Code: btnRight, Value: value}}, nil
	case 4:
		return wheel(relWheel, 1), nil
	case 5:
		return wheel(relWheel, -1), nil
	case 6:
		return wheel(relHWheel, -1), nil
	case 7:
		return wheel(relHWheel, 1), nil
	case 8:
		return []rawEvent{{Type: evKey, Code: btnSide, Value: value}}, nil
	case 9:
		return []rawEvent{{Type: evKey, Code: btnExtra, Value: value}}, nil
	default:
		return nil, fmt.Errorf("invalid button number: %d", id)
	}
}

// warp moves to the integer part of (x, y) relative to the last position sent
func (d *uinputDevice) warp(x, y float64) error {
	d.mu.Lock()
	dx, dy := int(x)-d.x, int(y)-d.y
	d.x, d.y = int(x), int(y)
	d.mu.Unlock()

	return d.writeMotion(dx, dy)
}

func (d *uinputDevice) writeMotion(dx, dy int) error {
	var evs []rawEvent
	if dx != 0 {
		evs = append(evs, rawEvent{Type: evRel, Code: relX, Value: int32(dx)})
	}
	if dy != 0 {
		evs = append(evs, rawEvent{Type: evRel, Code: relY, Value: int32(dy)})
	}
	if len(evs) == 0 {
		return nil
	}
	return d.write(evs...)
}

func (d *uinputDevice) Close() error {
	_ = ioctlInt(d.file, uiDevDestroy, 0)
	return d.file.Close()
}
