package gpio

import (
	"errors"
	"testing"
)

type fakeLine struct {
	values []int
	closed bool
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

func withFakeLine(t *testing.T, fl *fakeLine) {
	t.Helper()
	old := openLineFn
	openLineFn = func(chip string, offset int) (line, error) { return fl, nil }
	t.Cleanup(func() { openLineFn = old })
}

func TestOutputEnable_ActiveLow(t *testing.T) {
	fl := &fakeLine{}
	withFakeLine(t, fl)

	oe, err := OpenOutputEnable("gpiochip0", 17)
	if err != nil {
		t.Fatalf("OpenOutputEnable: %v", err)
	}
	if oe.Enabled() {
		t.Fatalf("expected outputs disabled after open")
	}
	if err := oe.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !oe.Enabled() {
		t.Fatalf("expected enabled")
	}
	if err := oe.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if got := fl.values; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("values=%v want [0 1]", got)
	}
}

func TestOutputEnable_CloseDisables(t *testing.T) {
	fl := &fakeLine{}
	withFakeLine(t, fl)

	oe, err := OpenOutputEnable("gpiochip0", 17)
	if err != nil {
		t.Fatalf("OpenOutputEnable: %v", err)
	}
	_ = oe.Enable()
	if err := oe.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fl.closed || fl.values[len(fl.values)-1] != 1 {
		t.Fatalf("close did not disable and release: %+v", fl)
	}
	if err := oe.Enable(); err == nil {
		t.Fatalf("expected error after close")
	}
	if err := oe.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOutputEnable_SetError(t *testing.T) {
	cause := errors.New("busy")
	fl := &fakeLine{err: cause}
	withFakeLine(t, fl)

	oe, err := OpenOutputEnable("gpiochip0", 4)
	if err != nil {
		t.Fatalf("OpenOutputEnable: %v", err)
	}
	if err := oe.Enable(); !errors.Is(err, cause) {
		t.Fatalf("err=%v want cause", err)
	}
	if oe.Enabled() {
		t.Fatalf("expected still disabled")
	}
}

func TestOpenOutputEnable_Validation(t *testing.T) {
	withFakeLine(t, &fakeLine{})
	if _, err := OpenOutputEnable("", 1); err == nil {
		t.Fatalf("expected error for empty chip")
	}
	if _, err := OpenOutputEnable("gpiochip0", -1); err == nil {
		t.Fatalf("expected error for negative offset")
	}
}
