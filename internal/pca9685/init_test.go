package pca9685

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func requireWrites(t *testing.T, got, want [][]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("writes=%d want %d: % X", len(got), len(want), got)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("write[%d]=% X want % X", i, got[i], want[i])
		}
	}
}

func TestInit_WriteSequence(t *testing.T) {
	slept := stubSleep(t)
	bus := &fakeBus{reads: []byte{0x00, 0x80}}
	d, _ := newTestDevice(t, bus, Config{})

	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	requireWrites(t, bus.writes, [][]byte{
		{regMode1, 0x00},
		{regMode1, 0x10},
		{regPrescale, DefaultPrescale},
		{regMode1, 0x80},
		{regMode1, 0xA0},
	})
	if d.State() != StateReady {
		t.Fatalf("state=%s want ready", d.State())
	}
	if len(*slept) != 1 || (*slept)[0] != 500*time.Microsecond {
		t.Fatalf("slept=%v want [500µs]", *slept)
	}
}

func TestInit_UsesConfiguredPrescaleAndWakeDelay(t *testing.T) {
	slept := stubSleep(t)
	bus := &fakeBus{}
	d, _ := newTestDevice(t, bus, Config{Prescale: 121, WakeDelay: 2 * time.Millisecond})

	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := bus.writes[2]; !bytes.Equal(got, []byte{regPrescale, 121}) {
		t.Fatalf("prescale write=% X", got)
	}
	if (*slept)[0] != 2*time.Millisecond {
		t.Fatalf("wake delay=%s want 2ms", (*slept)[0])
	}
}

func TestInit_RetriesUntilModeClears(t *testing.T) {
	stubSleep(t)
	bus := &fakeBus{reads: []byte{0x80, 0x11, 0x00, 0x80}}
	d, sink := newTestDevice(t, bus, Config{})

	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	clears := 0
	for _, w := range bus.writes {
		if bytes.Equal(w, []byte{regMode1, 0x00}) {
			clears++
		}
	}
	if clears != 3 {
		t.Fatalf("mode1 clears=%d want 3", clears)
	}
	if len(sink.lines) != 2 {
		t.Fatalf("log lines=%d want 2: %q", len(sink.lines), sink.lines)
	}
}

func TestInit_TimesOutAfterRetryBudget(t *testing.T) {
	stubSleep(t)
	bus := &fakeBus{sticky: 0x80}
	d, _ := newTestDevice(t, bus, Config{InitRetries: 5})

	err := d.Init()
	if !errors.Is(err, ErrInitTimeout) {
		t.Fatalf("err=%v want ErrInitTimeout", err)
	}
	if len(bus.writes) != 5 {
		t.Fatalf("writes=%d want 5", len(bus.writes))
	}
	if d.State() != StateUnreset {
		t.Fatalf("state=%s want unreset", d.State())
	}
	if err := d.SetDuty(0, 100); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("SetDuty err=%v want ErrNotInitialized", err)
	}
}

func TestInit_ReadFailuresCountTowardBudget(t *testing.T) {
	stubSleep(t)
	cause := errors.New("nack")
	bus := &fakeBus{readErr: cause}
	d, _ := newTestDevice(t, bus, Config{InitRetries: 3})

	err := d.Init()
	if !errors.Is(err, ErrInitTimeout) {
		t.Fatalf("err=%v want ErrInitTimeout", err)
	}
	if len(bus.writes) != 3 {
		t.Fatalf("writes=%d want 3", len(bus.writes))
	}
}

func TestInit_TransportErrorStopsSequence(t *testing.T) {
	stubSleep(t)
	cause := errors.New("bus timeout")
	bus := &fakeBus{failWrite: map[int]error{2: cause}}
	d, _ := newTestDevice(t, bus, Config{})

	err := d.Init()
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err=%v want *TransportError", err)
	}
	if te.Reg != regPrescale || !errors.Is(err, cause) {
		t.Fatalf("transport error=%v", te)
	}
	if d.State() != StateSleeping {
		t.Fatalf("state=%s want sleeping", d.State())
	}
	if len(bus.writes) != 3 {
		t.Fatalf("writes=%d want 3", len(bus.writes))
	}
}

func TestInit_ShortWriteIsFailure(t *testing.T) {
	stubSleep(t)
	bus := &fakeBus{shortAt: map[int]int{4: 1}}
	d, _ := newTestDevice(t, bus, Config{})

	if err := d.Init(); err == nil {
		t.Fatalf("expected short write error")
	}
	if d.State() != StateAwake {
		t.Fatalf("state=%s want awake", d.State())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := newWithIO(nil, Config{}); err == nil {
		t.Fatalf("expected error for nil dev")
	}
	if _, err := newWithIO(&fakeBus{}, Config{Prescale: 2}); err == nil {
		t.Fatalf("expected error for prescale below minimum")
	}
	d, err := newWithIO(&fakeBus{}, Config{WakeDelay: time.Microsecond})
	if err != nil {
		t.Fatalf("newWithIO: %v", err)
	}
	if d.cfg.WakeDelay != minWakeDelay || d.cfg.InitRetries != defaultInitRetries || d.cfg.Prescale != DefaultPrescale {
		t.Fatalf("defaults not applied: %+v", d.cfg)
	}
}

func TestStateString(t *testing.T) {
	if StateModeConfirmed.String() != "mode-confirmed" {
		t.Fatalf("got %q", StateModeConfirmed.String())
	}
	if State(42).String() != "state(42)" {
		t.Fatalf("got %q", State(42).String())
	}
}
