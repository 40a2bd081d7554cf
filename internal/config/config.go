package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"rover-ng/internal/drive"
)

type Config struct {
	I2C          I2CConfig          `yaml:"i2c"`
	PCA9685      PCA9685Config      `yaml:"pca9685"`
	OutputEnable OutputEnableConfig `yaml:"output_enable"`
	Drive        DriveConfig        `yaml:"drive"`
	Sensor       SensorConfig       `yaml:"sensor"`
}

type I2CConfig struct {
	Bus     int           `yaml:"bus"`
	SpeedHz uint32        `yaml:"speed_hz"`
	Timeout time.Duration `yaml:"timeout"`
}

type PCA9685Config struct {
	Addr        uint16        `yaml:"addr"`
	Prescale    int           `yaml:"prescale"`
	InitRetries int           `yaml:"init_retries"`
	WakeDelay   time.Duration `yaml:"wake_delay"`
}

type OutputEnableConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	// Line is the chip offset of the OE pin.
	Line *int `yaml:"line"`
}

type DriveConfig struct {
	// Once plays the steps a single time instead of looping.
	Once  bool         `yaml:"once"`
	Steps []StepConfig `yaml:"steps"`
}

type StepConfig struct {
	Intent string        `yaml:"intent"`
	Level  int           `yaml:"level"`
	Hold   time.Duration `yaml:"hold"`
}

type SensorConfig struct {
	Kind     string        `yaml:"kind"`
	Bus      int           `yaml:"bus"`
	Addr     uint16        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

// envOverrides are applied after the YAML file. Values are strings so an
// unset variable can be told apart from zero.
type envOverrides struct {
	I2CBus     string `env:"ROVER_I2C_BUS"`
	PCAAddr    string `env:"ROVER_PCA9685_ADDR"`
	Prescale   string `env:"ROVER_PCA9685_PRESCALE"`
	OEChip     string `env:"ROVER_OE_CHIP"`
	OELine     string `env:"ROVER_OE_LINE"`
	SensorKind string `env:"ROVER_SENSOR_KIND"`
}

// Load reads the YAML file at path (built-in defaults when path is empty),
// applies environment overrides and defaults, and validates the result.
func Load(path string) (Config, error) {
	// Seed bus defaults so YAML can still select bus 0. sensor.bus follows
	// i2c.bus unless set.
	cfg := Config{I2C: I2CConfig{Bus: 1}, Sensor: SensorConfig{Bus: -1}}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.I2C.Bus < 0 {
		return Config{}, fmt.Errorf("i2c.bus must be >= 0")
	}
	if cfg.I2C.SpeedHz == 0 {
		cfg.I2C.SpeedHz = 100_000
	}
	if cfg.I2C.Timeout <= 0 {
		cfg.I2C.Timeout = 100 * time.Millisecond
	}

	if cfg.PCA9685.Addr == 0 {
		cfg.PCA9685.Addr = 0x40
	}
	if cfg.PCA9685.Addr > 0x7F {
		return Config{}, fmt.Errorf("pca9685.addr must be a 7-bit address")
	}
	if cfg.PCA9685.Prescale == 0 {
		cfg.PCA9685.Prescale = 200
	}
	if cfg.PCA9685.Prescale < 3 || cfg.PCA9685.Prescale > 255 {
		return Config{}, fmt.Errorf("pca9685.prescale must be in 3..255")
	}
	if cfg.PCA9685.InitRetries <= 0 {
		cfg.PCA9685.InitRetries = 50
	}
	if cfg.PCA9685.WakeDelay <= 0 {
		cfg.PCA9685.WakeDelay = 500 * time.Microsecond
	}

	if cfg.OutputEnable.Enable {
		if cfg.OutputEnable.Chip == "" {
			cfg.OutputEnable.Chip = "gpiochip0"
		}
		if cfg.OutputEnable.Line == nil {
			return Config{}, fmt.Errorf("output_enable.line is required when output_enable.enable is true")
		}
		if *cfg.OutputEnable.Line < 0 {
			return Config{}, fmt.Errorf("output_enable.line must be >= 0")
		}
	}

	for i, st := range cfg.Drive.Steps {
		if _, err := drive.ParseIntent(st.Intent); err != nil {
			return Config{}, fmt.Errorf("drive.steps[%d].intent %q is not one of stop, forward, backward, left, right", i, st.Intent)
		}
		if st.Level < 0 || st.Level > 4096 {
			return Config{}, fmt.Errorf("drive.steps[%d].level must be in 0..4096", i)
		}
		if st.Hold < 0 {
			return Config{}, fmt.Errorf("drive.steps[%d].hold must be >= 0", i)
		}
	}

	cfg.Sensor.Kind = strings.ToLower(strings.TrimSpace(cfg.Sensor.Kind))
	if cfg.Sensor.Kind == "" {
		cfg.Sensor.Kind = "sht3x"
	}
	if cfg.Sensor.Kind != "sht3x" && cfg.Sensor.Kind != "bme280" {
		return Config{}, fmt.Errorf("sensor.kind must be 'sht3x' or 'bme280'")
	}
	if cfg.Sensor.Bus < 0 {
		cfg.Sensor.Bus = cfg.I2C.Bus
	}
	if cfg.Sensor.Addr > 0x7F {
		return Config{}, fmt.Errorf("sensor.addr must be a 7-bit address")
	}
	if cfg.Sensor.Interval <= 0 {
		cfg.Sensor.Interval = 1 * time.Second
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if ov.I2CBus != "" {
		n, err := strconv.Atoi(ov.I2CBus)
		if err != nil {
			return fmt.Errorf("ROVER_I2C_BUS: %w", err)
		}
		cfg.I2C.Bus = n
	}
	if ov.PCAAddr != "" {
		n, err := strconv.ParseUint(ov.PCAAddr, 0, 16)
		if err != nil {
			return fmt.Errorf("ROVER_PCA9685_ADDR: %w", err)
		}
		cfg.PCA9685.Addr = uint16(n)
	}
	if ov.Prescale != "" {
		n, err := strconv.Atoi(ov.Prescale)
		if err != nil {
			return fmt.Errorf("ROVER_PCA9685_PRESCALE: %w", err)
		}
		cfg.PCA9685.Prescale = n
	}
	if ov.OEChip != "" {
		cfg.OutputEnable.Chip = ov.OEChip
	}
	if ov.OELine != "" {
		n, err := strconv.Atoi(ov.OELine)
		if err != nil {
			return fmt.Errorf("ROVER_OE_LINE: %w", err)
		}
		cfg.OutputEnable.Line = &n
		cfg.OutputEnable.Enable = true
	}
	if ov.SensorKind != "" {
		cfg.Sensor.Kind = ov.SensorKind
	}
	return nil
}

// Sequence converts the configured steps, falling back to the built-in
// program when none are configured.
func (c DriveConfig) Sequence() []drive.Step {
	if len(c.Steps) == 0 {
		return drive.DefaultSequence()
	}
	out := make([]drive.Step, 0, len(c.Steps))
	for _, st := range c.Steps {
		intent, _ := drive.ParseIntent(st.Intent)
		out = append(out, drive.Step{Intent: intent, Level: st.Level, Hold: st.Hold})
	}
	return out
}
