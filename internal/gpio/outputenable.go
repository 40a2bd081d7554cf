package gpio

import (
	"fmt"
	"sync"
)

// line is the part of a requested GPIO line used here.
type line interface {
	SetValue(v int) error
	Close() error
}

var openLineFn = openLine

// OutputEnable drives the PCA9685 OE pin. The pin is active-low: high holds
// every output in its off state regardless of the PWM registers.
type OutputEnable struct {
	mu      sync.Mutex
	l       line
	enabled bool
}

// OpenOutputEnable requests offset on chip as an output, initially high
// (outputs disabled).
func OpenOutputEnable(chip string, offset int) (*OutputEnable, error) {
	if chip == "" {
		return nil, fmt.Errorf("gpio: chip is required")
	}
	if offset < 0 {
		return nil, fmt.Errorf("gpio: invalid line offset %d", offset)
	}
	l, err := openLineFn(chip, offset)
	if err != nil {
		return nil, err
	}
	return &OutputEnable{l: l}, nil
}

func (o *OutputEnable) Enable() error {
	return o.set(true)
}

func (o *OutputEnable) Disable() error {
	return o.set(false)
}

func (o *OutputEnable) Enabled() bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

func (o *OutputEnable) set(on bool) error {
	if o == nil {
		return fmt.Errorf("gpio: output enable is nil")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.l == nil {
		return fmt.Errorf("gpio: output enable is closed")
	}
	v := 1
	if on {
		v = 0
	}
	if err := o.l.SetValue(v); err != nil {
		return fmt.Errorf("gpio: set OE=%d: %w", v, err)
	}
	o.enabled = on
	return nil
}

// Close disables the outputs and releases the line.
func (o *OutputEnable) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.l == nil {
		return nil
	}
	_ = o.l.SetValue(1)
	o.enabled = false
	err := o.l.Close()
	o.l = nil
	return err
}
