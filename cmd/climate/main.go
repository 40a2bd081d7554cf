package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rover-ng/internal/config"
	"rover-ng/internal/i2c"
	"rover-ng/internal/sensors/bme280"
	"rover-ng/internal/sensors/sht3x"
)

type readFunc func() (tempC, humidity float64, err error)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus, err := i2c.Open(i2c.BusPath(cfg.Sensor.Bus))
	if err != nil {
		log.Fatalf("i2c open failed: %v", err)
	}
	defer bus.Close()
	if err := bus.SetTimeout(cfg.I2C.Timeout); err != nil {
		log.Printf("i2c timeout not applied: %v", err)
	}

	read, err := openSensor(bus, cfg.Sensor)
	if err != nil {
		log.Fatalf("sensor init failed: %v", err)
	}
	log.Printf("climate sensor=%s bus=%d interval=%s", cfg.Sensor.Kind, cfg.Sensor.Bus, cfg.Sensor.Interval)

	poll(ctx, os.Stdout, read, cfg.Sensor.Interval)
}

func openSensor(bus *i2c.Bus, sc config.SensorConfig) (readFunc, error) {
	switch sc.Kind {
	case "bme280":
		addr := sc.Addr
		if addr == 0 {
			addr = bme280.DefaultAddress()
		}
		dev, err := bme280.New(bus.Dev(addr))
		if err != nil {
			return nil, err
		}
		return func() (float64, float64, error) {
			t, _, h, err := dev.Read()
			return t, h, err
		}, nil
	default:
		addr := sc.Addr
		if addr == 0 {
			addr = sht3x.DefaultAddress()
		}
		dev, err := sht3x.New(bus.Dev(addr))
		if err != nil {
			return nil, err
		}
		return dev.Read, nil
	}
}

// poll prints one "<temp>, <humidity>" line per interval until ctx is done.
// Failed reads are logged and skipped.
func poll(ctx context.Context, w io.Writer, read readFunc, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		tempC, rh, err := read()
		if err != nil {
			log.Printf("climate read failed: %v", err)
		} else {
			fmt.Fprintf(w, "%.2f, %.2f\n", tempC, rh)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
