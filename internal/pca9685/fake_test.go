package pca9685

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeBus records writes and serves reads from a queue. When the queue is
// empty, single-byte reads return sticky.
type fakeBus struct {
	writes [][]byte
	reads  []byte
	sticky byte

	// slots backs multi-byte reads, keyed by start register.
	slots map[byte][slotLen]byte

	failWrite map[int]error
	shortAt   map[int]int
	readErr   error
}

func (f *fakeBus) Write(p []byte) (int, error) {
	idx := len(f.writes)
	f.writes = append(f.writes, append([]byte(nil), p...))
	if err, ok := f.failWrite[idx]; ok {
		return 0, err
	}
	if n, ok := f.shortAt[idx]; ok {
		return n, nil
	}
	return len(p), nil
}

func (f *fakeBus) WriteRead(w, r []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	if len(w) != 1 {
		return fmt.Errorf("fake: unexpected write len %d", len(w))
	}
	if len(r) == slotLen {
		slot, ok := f.slots[w[0]]
		if !ok {
			return errors.New("fake: no slot")
		}
		copy(r, slot[:])
		return nil
	}
	if len(f.reads) > 0 {
		r[0] = f.reads[0]
		f.reads = f.reads[1:]
		return nil
	}
	r[0] = f.sticky
	return nil
}

type logSink struct {
	lines []string
}

func (l *logSink) logf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	old := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = old })
	return &slept
}

func newTestDevice(t *testing.T, bus *fakeBus, cfg Config) (*Device, *logSink) {
	t.Helper()
	sink := &logSink{}
	if cfg.Logf == nil {
		cfg.Logf = sink.logf
	}
	d, err := newWithIO(bus, cfg)
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	return d, sink
}

func readyDevice(t *testing.T, bus *fakeBus) *Device {
	t.Helper()
	d, _ := newTestDevice(t, bus, Config{})
	d.state = StateReady
	return d
}
