//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event types and codes from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0x00

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	keyA     = 30
	keyZ     = 44
	keySpace = 57
	keyMax   = 0x2ff

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
	btnSide   = 0x113
	btnExtra  = 0x114

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2

	busVirtual = 0x06
)

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint) uint {
	return dir<<30 | size<<16 | typ<<8 | nr
}

var (
	eviocgrab    = ioc(iocWrite, 'E', 0x90, 4)
	uiSetEvbit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeybit  = ioc(iocWrite, 'U', 101, 4)
	uiSetRelbit  = ioc(iocWrite, 'U', 102, 4)
	uiDevSetup   = ioc(iocWrite, 'U', 3, uint(unsafe.Sizeof(uinputSetup{})))
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
)

func eviocgname(size uint) uint      { return ioc(iocRead, 'E', 0x06, size) }
func eviocgbit(ev, size uint) uint   { return ioc(iocRead, 'E', 0x20+ev, size) }
func eviocgkey(size uint) uint       { return ioc(iocRead, 'E', 0x18, size) }
func bitSet(bits []byte, n int) bool { return n/8 < len(bits) && bits[n/8]>>(n%8)&1 == 1 }

// uinputSetup mirrors struct uinput_setup
type uinputSetup struct {
	Bustype      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	Name         [80]byte
	FFEffectsMax uint32
}

// rawEvent is the portable part of struct input_event
type rawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

var (
	timevalSize = int(unsafe.Sizeof(unix.Timeval{}))
	eventSize   = timevalSize + 8
)

func decodeEvent(b []byte) rawEvent {
	b = b[timevalSize:]
	return rawEvent{
		Type:  binary.NativeEndian.Uint16(b[0:2]),
		Code:  binary.NativeEndian.Uint16(b[2:4]),
		Value: int32(binary.NativeEndian.Uint32(b[4:8])),
	}
}

// encodeEvents serializes events with a zero timestamp; the kernel stamps
// uinput events itself.
func encodeEvents(evs []rawEvent) []byte {
	buf := make([]byte, len(evs)*eventSize)
	for i, ev := range evs {
		b := buf[i*eventSize+timevalSize:]
		binary.NativeEndian.PutUint16(b[0:2], ev.Type)
		binary.NativeEndian.PutUint16(b[2:4], ev.Code)
		binary.NativeEndian.PutUint32(b[4:8], uint32(ev.Value))
	}
	return buf
}

// control runs fn with the file's descriptor without switching the file to
// blocking mode, so a concurrent Close still interrupts Read.
func control(f *os.File, fn func(fd int) error) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) { opErr = fn(int(fd)) }); err != nil {
		return err
	}
	return opErr
}

func ioctlPtr(fd int, req uint, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlBuf(f *os.File, req uint, buf []byte) error {
	return control(f, func(fd int) error {
		return ioctlPtr(fd, req, unsafe.Pointer(&buf[0]))
	})
}

func ioctlInt(f *os.File, req uint, v int) error {
	return control(f, func(fd int) error {
		return unix.IoctlSetInt(fd, req, v)
	})
}

func deviceName(f *os.File) (string, error) {
	buf := make([]byte, 256)
	if err := ioctlBuf(f, eviocgname(uint(len(buf))), buf); err != nil {
		return "", fmt.Errorf("EVIOCGNAME: %w", err)
	}
	return unix.ByteSliceToString(buf), nil
}

// keyBits returns the EV_KEY capability bitmap of a device
func keyBits(f *os.File) ([]byte, error) {
	buf := make([]byte, keyMax/8+1)
	if err := ioctlBuf(f, eviocgbit(evKey, uint(len(buf))), buf); err != nil {
		return nil, fmt.Errorf("EVIOCGBIT: %w", err)
	}
	return buf, nil
}

// keyState returns the bitmap of keys currently held on a device
func keyState(f *os.File) ([]byte, error) {
	buf := make([]byte, keyMax/8+1)
	if err := ioctlBuf(f, eviocgkey(uint(len(buf))), buf); err != nil {
		return nil, fmt.Errorf("EVIOCGKEY: %w", err)
	}
	return buf, nil
}

// isKeyboard reports whether a capability bitmap looks like a keyboard
// rather than a mouse or a power button
func isKeyboard(bits []byte) bool {
	return bitSet(bits, keyA) && bitSet(bits, keyZ) && bitSet(bits, keySpace)
}
