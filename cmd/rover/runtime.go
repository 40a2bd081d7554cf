package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"rover-ng/internal/config"
	"rover-ng/internal/drive"
	"rover-ng/internal/gpio"
	"rover-ng/internal/i2c"
	"rover-ng/internal/pca9685"
)

// controller is the PWM expander as seen by the runtime.
type controller interface {
	drive.ChannelWriter
	Init() error
	Duty(channel int) (pca9685.Duty, error)
}

type outputEnable interface {
	Enable() error
	Close() error
}

var openControllerFn = openController

var openOutputEnableFn = func(chip string, line int) (outputEnable, error) {
	return gpio.OpenOutputEnable(chip, line)
}

type runOptions struct {
	dumpChannels bool
}

func openController(cfg config.Config) (controller, io.Closer, error) {
	bus, err := i2c.Open(i2c.BusPath(cfg.I2C.Bus))
	if err != nil {
		return nil, nil, err
	}
	if err := bus.SetSpeed(cfg.I2C.SpeedHz); err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	if err := bus.SetTimeout(cfg.I2C.Timeout); err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	dev, err := pca9685.New(bus.Dev(cfg.PCA9685.Addr), pca9685.Config{
		Prescale:    byte(cfg.PCA9685.Prescale),
		InitRetries: cfg.PCA9685.InitRetries,
		WakeDelay:   cfg.PCA9685.WakeDelay,
	})
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}

// run initializes the expander and plays the drive program until ctx is done
// or the program ends. Motors are only driven once init reached Ready.
func run(ctx context.Context, cfg config.Config, opts runOptions) error {
	ctrl, closer, err := openControllerFn(cfg)
	if err != nil {
		return fmt.Errorf("pca9685 open failed: %w", err)
	}
	defer closer.Close()

	var oe outputEnable
	if cfg.OutputEnable.Enable {
		oe, err = openOutputEnableFn(cfg.OutputEnable.Chip, *cfg.OutputEnable.Line)
		if err != nil {
			return fmt.Errorf("output enable open failed: %w", err)
		}
		defer oe.Close()
	}

	if err := ctrl.Init(); err != nil {
		return fmt.Errorf("pca9685 init failed: %w", err)
	}
	log.Printf("pca9685 ready")

	d := drive.New(ctrl)
	if err := d.Stop(); err != nil {
		return fmt.Errorf("initial stop failed: %w", err)
	}
	if opts.dumpChannels {
		dumpChannels(ctrl)
	}
	if oe != nil {
		if err := oe.Enable(); err != nil {
			return err
		}
	}

	steps := cfg.Drive.Sequence()
	err = drive.RunSequence(ctx, d, steps, !cfg.Drive.Once, func(st drive.Step) {
		log.Printf("drive %s level=%d hold=%s", st.Intent, st.Level, st.Hold)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func dumpChannels(ctrl controller) {
	for ch := 0; ch < pca9685.Channels; ch++ {
		duty, err := ctrl.Duty(ch)
		if err != nil {
			log.Printf("pwm channel %d: %v", ch, err)
			continue
		}
		log.Printf("pwm channel %d: %s", ch, duty)
	}
}
