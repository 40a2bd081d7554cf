package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rover-ng/internal/config"
)

func main() {
	var configPath string
	var dumpChannels bool
	flag.StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	flag.BoolVar(&dumpChannels, "dump-channels", false, "Log every channel slot after init")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("rover-ng starting")
	log.Printf("i2c bus=%d speed=%dHz timeout=%s pca9685 addr=0x%02X prescale=%d",
		cfg.I2C.Bus, cfg.I2C.SpeedHz, cfg.I2C.Timeout, cfg.PCA9685.Addr, cfg.PCA9685.Prescale)

	if err := run(ctx, cfg, runOptions{dumpChannels: dumpChannels}); err != nil {
		log.Fatalf("rover-ng: %v", err)
	}
	log.Printf("rover-ng stopping")
}
