package teraranger

import (
	"errors"
	"flag"
	"strconv"
	"time"

	"github.com/robotalks/teraranger/pkg/abi"
)

// DefaultAddr is the 8-bit factory address of the sensor.
const DefaultAddr uint8 = 0x60

// Config defines the configurations for the driver.
type Config struct {
	// Device selects the I2C bus: "sim", "sim:<name>" or a bus name.
	Device string `yaml:"device"`
	// Addr is the 8-bit device address.
	Addr uint8 `yaml:"addr"`
	// Offset in meters is added to every measurement.
	Offset float64 `yaml:"offset"`
	// UseAGL enables AGL notifications on the ABI bus.
	UseAGL   bool  `yaml:"agl"`
	SenderID uint8 `yaml:"sender_id"`
	// Frequency is the poll rate in Hz.
	Frequency float64 `yaml:"freq"`
	// TelemetryPeriod is the interval of Sonar reports, 0 disables.
	TelemetryPeriod time.Duration `yaml:"telemetry"`
}

var defaultConfig = Config{
	Addr:            DefaultAddr,
	UseAGL:          true,
	SenderID:        abi.AGLTeraRangerOneID,
	Frequency:       20,
	TelemetryPeriod: time.Second,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "I2C bus, sim for the simulated sensor.")
	flag.Var((*byteValue)(&defaultConfig.Addr), "addr", "8-bit I2C address.")
	flag.Float64Var(&defaultConfig.Offset, "offset", defaultConfig.Offset, "Offset added to measurements in meters.")
	flag.BoolVar(&defaultConfig.UseAGL, "agl", defaultConfig.UseAGL, "Publish AGL messages.")
	flag.Var((*byteValue)(&defaultConfig.SenderID), "sender-id", "Sender ID of AGL messages.")
	flag.Float64Var(&defaultConfig.Frequency, "freq", defaultConfig.Frequency, "Poll frequency in Hz.")
	flag.DurationVar(&defaultConfig.TelemetryPeriod, "telemetry", defaultConfig.TelemetryPeriod, "Telemetry report period, 0 disables.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("teraranger: device required")
	}
	if c.Frequency <= 0 {
		return errors.New("teraranger: frequency must be positive")
	}
	if c.TelemetryPeriod < 0 {
		return errors.New("teraranger: negative telemetry period")
	}
	return nil
}

// PollPeriod is the interval between two reads.
func (c *Config) PollPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.Frequency)
}

type byteValue uint8

func (v *byteValue) String() string {
	return "0x" + strconv.FormatUint(uint64(*v), 16)
}

func (v *byteValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return err
	}
	*v = byteValue(n)
	return nil
}
