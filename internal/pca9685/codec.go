package pca9685

import (
	"fmt"
	"io"
)

// busIO is the slice of the i2c device the driver needs. *i2c.Dev implements
// it; WriteRead must be a single combined transaction.
type busIO interface {
	Write(p []byte) (int, error)
	WriteRead(w, r []byte) error
}

// Duty is one PWM slot: the tick at which the output turns on and the tick
// at which it turns off, within a FullScale-tick cycle.
type Duty struct {
	On  uint16
	Off uint16
}

var (
	DutyOff = Duty{On: 0, Off: FullScale}
	DutyOn  = Duty{On: FullScale, Off: 0}
)

func (d Duty) String() string {
	return fmt.Sprintf("(%d,%d)", d.On, d.Off)
}

// encodeDuty lays out a slot as ON_L, ON_H, OFF_L, OFF_H. The high bytes are
// not masked to 4 bits: the device ignores the unused upper bits.
func encodeDuty(d Duty) [slotLen]byte {
	return [slotLen]byte{byte(d.On), byte(d.On >> 8), byte(d.Off), byte(d.Off >> 8)}
}

func decodeDuty(b [slotLen]byte) Duty {
	return Duty{
		On:  uint16(b[0]) | uint16(b[1])<<8,
		Off: uint16(b[2]) | uint16(b[3])<<8,
	}
}

// writeByte sends [reg, value]. It returns the transport's byte count and
// leaves short-write handling to the caller.
func (d *Device) writeByte(reg, value byte) (int, error) {
	return d.dev.Write([]byte{reg, value})
}

// writeReg is writeByte with short writes treated as failures.
func (d *Device) writeReg(reg, value byte) error {
	n, err := d.writeByte(reg, value)
	return checkWrite("write", reg, n, 2, err)
}

func (d *Device) readByte(reg byte) (byte, error) {
	var b [1]byte
	if err := d.dev.WriteRead([]byte{reg}, b[:]); err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return b[0], nil
}

// writeChannel sends the 5-byte burst [base, on_l, on_h, off_l, off_h].
// Requires auto-increment.
func (d *Device) writeChannel(base byte, duty Duty) (int, error) {
	slot := encodeDuty(duty)
	buf := make([]byte, 0, 1+slotLen)
	buf = append(buf, base)
	buf = append(buf, slot[:]...)
	return d.dev.Write(buf)
}

func (d *Device) readChannel(base byte) (Duty, error) {
	var b [slotLen]byte
	if err := d.dev.WriteRead([]byte{base}, b[:]); err != nil {
		return Duty{}, &TransportError{Op: "read slot", Reg: base, Err: err}
	}
	return decodeDuty(b), nil
}

func checkWrite(op string, reg byte, n, want int, err error) error {
	if err != nil {
		return &TransportError{Op: op, Reg: reg, Err: err}
	}
	if n < want {
		return &TransportError{Op: op, Reg: reg, Err: fmt.Errorf("%w: %d of %d bytes", io.ErrShortWrite, n, want)}
	}
	return nil
}
