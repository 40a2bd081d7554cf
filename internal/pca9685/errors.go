package pca9685

import (
	"errors"
	"fmt"
)

var (
	// ErrInitTimeout means MODE1 never read back as cleared within the retry
	// budget. The device must not be used to drive outputs.
	ErrInitTimeout = errors.New("pca9685: mode confirmation timed out")

	ErrNotInitialized = errors.New("pca9685: device not initialized")

	ErrInvalidChannel = errors.New("pca9685: invalid channel")
)

// TransportError reports a failed bus transaction against a register.
type TransportError struct {
	Op  string
	Reg byte
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pca9685: %s reg 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
