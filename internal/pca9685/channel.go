package pca9685

import "fmt"

// DutyFor maps a drive level onto one of the three slot states: fully off,
// fully on, or on at tick 0 and off after level ticks.
func DutyFor(level int) Duty {
	switch {
	case level >= FullScale:
		return DutyOn
	case level <= 0:
		return DutyOff
	default:
		return Duty{On: 0, Off: uint16(level)}
	}
}

func checkChannel(channel int) error {
	if channel < 0 || channel >= Channels {
		return fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidChannel, channel, Channels-1)
	}
	return nil
}

// SetDuty drives one channel at level (clamped, see DutyFor).
func (d *Device) SetDuty(channel, level int) error {
	return d.SetChannel(channel, DutyFor(level))
}

// SetChannel writes a raw slot to one channel.
func (d *Device) SetChannel(channel int, duty Duty) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return ErrNotInitialized
	}
	base := channelBase(channel)
	n, err := d.writeChannel(base, duty)
	return checkWrite("write slot", base, n, 1+slotLen, err)
}

// SetAll drives every channel at level with one ALL_LED write.
func (d *Device) SetAll(level int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return ErrNotInitialized
	}
	n, err := d.writeChannel(regAllLEDOn, DutyFor(level))
	return checkWrite("write all", regAllLEDOn, n, 1+slotLen, err)
}

// Duty reads back the slot of one channel.
func (d *Device) Duty(channel int) (Duty, error) {
	if err := checkChannel(channel); err != nil {
		return Duty{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return Duty{}, ErrNotInitialized
	}
	return d.readChannel(channelBase(channel))
}
