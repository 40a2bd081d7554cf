package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"rover-ng/internal/config"
	"rover-ng/internal/pca9685"
)

type fakeController struct {
	initErr error
	inits   int
	writes  []int
	oeOnAt  int // writes recorded when OE was enabled; -1 if never
}

func (f *fakeController) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeController) SetDuty(channel, level int) error {
	f.writes = append(f.writes, channel)
	return nil
}

func (f *fakeController) Duty(channel int) (pca9685.Duty, error) {
	return pca9685.DutyOff, nil
}

type nopCloser struct{ closed bool }

func (n *nopCloser) Close() error {
	n.closed = true
	return nil
}

type fakeOE struct {
	ctrl    *fakeController
	enabled bool
	closed  bool
}

func (o *fakeOE) Enable() error {
	o.enabled = true
	o.ctrl.oeOnAt = len(o.ctrl.writes)
	return nil
}

func (o *fakeOE) Close() error {
	o.closed = true
	return nil
}

func withFakes(t *testing.T, ctrl *fakeController, oe *fakeOE) *nopCloser {
	t.Helper()
	closer := &nopCloser{}
	oldCtrl := openControllerFn
	oldOE := openOutputEnableFn
	openControllerFn = func(config.Config) (controller, io.Closer, error) { return ctrl, closer, nil }
	openOutputEnableFn = func(chip string, line int) (outputEnable, error) { return oe, nil }
	t.Cleanup(func() {
		openControllerFn = oldCtrl
		openOutputEnableFn = oldOE
	})
	return closer
}

func loadConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	line := 17
	cfg.OutputEnable = config.OutputEnableConfig{Enable: true, Chip: "gpiochip0", Line: &line}
	cfg.Drive = config.DriveConfig{Once: true, Steps: []config.StepConfig{
		{Intent: "forward", Level: 300},
		{Intent: "right", Level: 300},
	}}
	return cfg
}

func TestRun_StopsBeforeEnablingOutputs(t *testing.T) {
	ctrl := &fakeController{oeOnAt: -1}
	oe := &fakeOE{ctrl: ctrl}
	closer := withFakes(t, ctrl, oe)

	if err := run(context.Background(), loadConfig(t), runOptions{dumpChannels: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctrl.inits != 1 {
		t.Fatalf("inits=%d want 1", ctrl.inits)
	}
	if ctrl.oeOnAt != 16 {
		t.Fatalf("OE enabled after %d writes want 16 (initial stop)", ctrl.oeOnAt)
	}
	// initial stop + forward(6) + right(3 released, 3 driven) + final stop.
	if len(ctrl.writes) != 16+6+6+16 {
		t.Fatalf("writes=%d", len(ctrl.writes))
	}
	if !oe.closed || !closer.closed {
		t.Fatalf("resources not released: oe=%v bus=%v", oe.closed, closer.closed)
	}
}

func TestRun_InitTimeoutIsFatal(t *testing.T) {
	ctrl := &fakeController{initErr: pca9685.ErrInitTimeout, oeOnAt: -1}
	oe := &fakeOE{ctrl: ctrl}
	withFakes(t, ctrl, oe)

	err := run(context.Background(), loadConfig(t), runOptions{})
	if !errors.Is(err, pca9685.ErrInitTimeout) {
		t.Fatalf("err=%v want ErrInitTimeout", err)
	}
	if len(ctrl.writes) != 0 || oe.enabled {
		t.Fatalf("motors touched after failed init: writes=%d oe=%v", len(ctrl.writes), oe.enabled)
	}
}

func TestRun_CanceledContextIsClean(t *testing.T) {
	ctrl := &fakeController{oeOnAt: -1}
	withFakes(t, ctrl, &fakeOE{ctrl: ctrl})

	cfg := loadConfig(t)
	cfg.Drive.Once = false
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, cfg, runOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
