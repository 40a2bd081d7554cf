package pca9685

import (
	"fmt"
	"log"
	"sync"
	"time"

	"rover-ng/internal/i2c"
)

var sleep = time.Sleep

const (
	defaultInitRetries = 50
	minWakeDelay       = 500 * time.Microsecond
)

type Config struct {
	// Prescale sets the PWM frequency. Hardware specific; DefaultPrescale
	// when zero.
	Prescale byte
	// InitRetries bounds the MODE1 confirmation loop.
	InitRetries int
	// WakeDelay is the oscillator settle time after clearing SLEEP. Values
	// below 500µs are raised to 500µs.
	WakeDelay time.Duration
	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Device is a PCA9685 on an I2C bus. All methods are safe for concurrent use;
// register sequences are serialized per device.
type Device struct {
	cfg Config
	dev busIO

	mu    sync.Mutex
	state State
}

func New(dev *i2c.Dev, cfg Config) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("pca9685: dev is nil")
	}
	return newWithIO(dev, cfg)
}

func newWithIO(dev busIO, cfg Config) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("pca9685: dev is nil")
	}
	if cfg.Prescale == 0 {
		cfg.Prescale = DefaultPrescale
	}
	if cfg.Prescale < prescaleMin {
		return nil, fmt.Errorf("pca9685: prescale %d below minimum %d", cfg.Prescale, prescaleMin)
	}
	if cfg.InitRetries <= 0 {
		cfg.InitRetries = defaultInitRetries
	}
	if cfg.WakeDelay < minWakeDelay {
		cfg.WakeDelay = minWakeDelay
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	return &Device{cfg: cfg, dev: dev, state: StateUnreset}, nil
}

// State reports how far initialization has progressed.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) Ready() bool {
	return d.State() == StateReady
}
