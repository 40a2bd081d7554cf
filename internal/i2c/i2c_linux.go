//go:build linux

package i2c

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux I2C implementation backed by /dev/i2c-*.
//
// We use I2C_RDWR so a register read is a combined write+read (repeated
// start) and cannot be split by another master transaction.

const (
	i2cMrd     = 0x0001
	i2cTimeout = 0x0702
	i2cRdwr    = 0x0707
)

var sysfsI2CBase = "/sys/bus/i2c/devices"

type msg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C bus (e.g., /dev/i2c-1).
//
// Transfers are serialized by the bus, so multiple Dev handles may share it.
// Multi-transaction sequences (read-modify-write) still need coordination by
// the device driver.
type Bus struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// SetTimeout sets the adapter transfer timeout. The kernel counts in units of
// 10ms, so d is rounded up.
func (b *Bus) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("i2c: invalid timeout %s", d)
	}
	ticks := (d + 10*time.Millisecond - 1) / (10 * time.Millisecond)
	if ticks < 1 {
		ticks = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return errors.New("i2c: bus is closed")
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), uintptr(i2cTimeout), uintptr(ticks))
	if errno != 0 {
		return fmt.Errorf("i2c: set timeout: %w", errno)
	}
	return nil
}

// SetSpeed checks that the adapter runs at hz. Linux fixes the adapter clock
// in the device tree, so this can only verify it; adapters that do not
// publish clock-frequency are accepted as-is.
func (b *Bus) SetSpeed(hz uint32) error {
	if hz == 0 {
		return fmt.Errorf("i2c: invalid bus speed 0")
	}
	n, ok := busNumber(b.path)
	if !ok {
		return nil
	}
	raw, err := os.ReadFile(filepath.Join(sysfsI2CBase, fmt.Sprintf("i2c-%d", n), "of_node", "clock-frequency"))
	if err != nil || len(raw) < 4 {
		return nil
	}
	cur := binary.BigEndian.Uint32(raw[:4])
	if cur != hz {
		return fmt.Errorf("i2c: %s runs at %d Hz, want %d Hz", b.path, cur, hz)
	}
	return nil
}

func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

// Dev represents a device at a 7-bit I2C address.
type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) Addr() uint16 {
	if d == nil {
		return 0
	}
	return d.addr
}

// Write sends p as one transaction and returns the number of bytes written.
func (d *Dev) Write(p []byte) (int, error) {
	return d.tx(p, nil)
}

func (d *Dev) Read(p []byte) error {
	_, err := d.tx(nil, p)
	return err
}

func (d *Dev) WriteRead(w, r []byte) error {
	_, err := d.tx(w, r)
	return err
}

func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.WriteRead([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	_, err := d.Write([]byte{reg, value})
	return err
}

func (d *Dev) tx(w, r []byte) (int, error) {
	if d == nil || d.bus == nil {
		return 0, errors.New("i2c device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return 0, fmt.Errorf("invalid i2c addr 0x%X", d.addr)
	}

	msgs := make([]msg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, msg{addr: d.addr, flags: 0, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, msg{addr: d.addr, flags: i2cMrd, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()
	if d.bus.f == nil {
		return 0, errors.New("i2c: bus is closed")
	}

	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), uintptr(i2cRdwr), uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return 0, errno
	}
	if len(r) > 0 {
		return len(r), nil
	}
	return len(w), nil
}
