package drive

import (
	"fmt"
	"sync"
)

// ChannelWriter drives one PWM channel at a level in [0,4096]. Levels outside
// the range are clamped by the writer. *pca9685.Device implements it.
type ChannelWriter interface {
	SetDuty(channel, level int) error
}

// Drive maps motion intents onto channel writes. Every transition computes
// the full channel image of the new state and writes only the channels that
// change, turning channels off before turning others on.
type Drive struct {
	mu    sync.Mutex
	out   ChannelWriter
	state State
	// synced is false until the hardware is known to match state.
	synced bool
}

func New(out ChannelWriter) *Drive {
	return &Drive{out: out}
}

func (d *Drive) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Drive) Forward(level int) error  { return d.Apply(State{Intent: Forward, Level: level}) }
func (d *Drive) Backward(level int) error { return d.Apply(State{Intent: Backward, Level: level}) }
func (d *Drive) Left(level int) error     { return d.Apply(State{Intent: Left, Level: level}) }
func (d *Drive) Right(level int) error    { return d.Apply(State{Intent: Right, Level: level}) }

// Stop turns all 16 channels fully off, including channels outside the motor
// map, whatever the current state.
func (d *Drive) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *Drive) stopLocked() error {
	d.synced = false
	d.state = State{}
	for ch := 0; ch < NumChannels; ch++ {
		if err := d.out.SetDuty(ch, 0); err != nil {
			return err
		}
	}
	d.synced = true
	return nil
}

// Apply transitions to next. A failed write leaves the drive unsynced and the
// next transition rewrites every channel.
func (d *Drive) Apply(next State) error {
	if !next.valid() {
		return fmt.Errorf("drive: invalid intent %s", next.Intent)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if next.Intent == Stopped {
		return d.stopLocked()
	}

	prev := d.state.targets()
	want := next.targets()
	full := !d.synced

	d.synced = false
	d.state = next
	// Break before make: releases first, then the channels that come up.
	for _, releasing := range []bool{true, false} {
		for ch := 0; ch < NumChannels; ch++ {
			if (normLevel(want[ch]) == 0) != releasing {
				continue
			}
			if !full && normLevel(prev[ch]) == normLevel(want[ch]) {
				continue
			}
			if err := d.out.SetDuty(ch, want[ch]); err != nil {
				return err
			}
		}
	}
	d.synced = true
	return nil
}
