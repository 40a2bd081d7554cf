package pca9685

import "fmt"

// State is a step of the power-on sequence.
type State int

const (
	StateUnreset State = iota
	StateModeConfirmed
	StateSleeping
	StatePrescaled
	StateAwake
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnreset:
		return "unreset"
	case StateModeConfirmed:
		return "mode-confirmed"
	case StateSleeping:
		return "sleeping"
	case StatePrescaled:
		return "prescaled"
	case StateAwake:
		return "awake"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Init runs the reset/prescale/wake sequence. On success the device is Ready
// with auto-increment enabled. On failure the device stays at the last state
// reached and refuses channel writes; Init may be called again.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = StateUnreset
	if err := d.confirmMode(); err != nil {
		return err
	}
	d.state = StateModeConfirmed

	oldmode, err := d.readByte(regMode1)
	if err != nil {
		return err
	}
	// Prescale only latches while the oscillator is stopped.
	newmode := (oldmode &^ mode1Restart) | mode1Sleep
	if err := d.writeReg(regMode1, newmode); err != nil {
		return err
	}
	d.state = StateSleeping

	if err := d.writeReg(regPrescale, d.cfg.Prescale); err != nil {
		return err
	}
	d.state = StatePrescaled

	if err := d.writeReg(regMode1, oldmode); err != nil {
		return err
	}
	d.settle()
	d.state = StateAwake

	if err := d.writeReg(regMode1, oldmode|mode1Restart|mode1AI); err != nil {
		return err
	}
	d.state = StateReady
	return nil
}

// confirmMode clears MODE1 and reads it back until it sticks.
func (d *Device) confirmMode() error {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.InitRetries; attempt++ {
		if err := d.writeReg(regMode1, 0); err != nil {
			d.cfg.Logf("pca9685: cannot clear mode1 (attempt %d/%d): %v", attempt, d.cfg.InitRetries, err)
			lastErr = err
		}
		mode, err := d.readByte(regMode1)
		if err != nil {
			d.cfg.Logf("pca9685: cannot read mode1 (attempt %d/%d): %v", attempt, d.cfg.InitRetries, err)
			lastErr = err
			continue
		}
		if mode == 0 {
			return nil
		}
		d.cfg.Logf("pca9685: mode1=0x%02X want 0x00 (attempt %d/%d), retrying", mode, attempt, d.cfg.InitRetries)
		lastErr = fmt.Errorf("mode1=0x%02X", mode)
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrInitTimeout, d.cfg.InitRetries, lastErr)
}

// settle waits for the oscillator after SLEEP is cleared.
func (d *Device) settle() {
	sleep(d.cfg.WakeDelay)
}
