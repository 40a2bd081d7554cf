package i2c

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Bus speeds in Hz.
const (
	SpeedStandard uint32 = 100_000
	SpeedFast     uint32 = 400_000
)

// BusPath returns the i2c-dev node for adapter n (e.g. /dev/i2c-1).
func BusPath(n int) string {
	return fmt.Sprintf("/dev/i2c-%d", n)
}

// busNumber extracts N from a /dev/i2c-N path.
func busNumber(path string) (int, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "i2c-") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "i2c-"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
