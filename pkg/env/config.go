// Package env assembles the driver, its bus and the registrars from
// configuration.
package env

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/teraranger/pkg/teraranger"
)

// DefaultType is the device type announced to registries.
const DefaultType = "teraranger"

// Config provides options to setup the daemon.
type Config struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`

	// MQTTBrokerURL specifies the MQTT broker to use, empty disables.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// WebsocketAddr is the listen address of the websocket downlink,
	// empty disables.
	WebsocketAddr string `yaml:"websocket"`

	TeraRanger teraranger.Config `yaml:"teraranger"`
}

var defaultConfig = Config{
	Type:          DefaultType,
	Description:   "TeraRanger One range finder",
	MQTTBrokerURL: "mqtt://localhost:1883/robo/",
}

var configFile string

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.ID = MachineID()
	defaultConfig.TeraRanger = *teraranger.NewConfig()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML configuration file.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID")
	flag.StringVar(&defaultConfig.Type, "type", defaultConfig.Type, "Device type")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty disables")
	flag.StringVar(&defaultConfig.WebsocketAddr, "websocket", defaultConfig.WebsocketAddr, "Websocket listen address, empty disables")
	teraranger.SetupFlags()
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Parse parses command line flags and loads the file given by -config.
// Flags set explicitly take precedence over the file.
func Parse() error {
	flag.Parse()
	if configFile != "" {
		set := make(map[string]string)
		flag.Visit(func(f *flag.Flag) {
			set[f.Name] = f.Value.String()
		})
		if err := defaultConfig.LoadFile(configFile); err != nil {
			return err
		}
		*teraranger.Default() = defaultConfig.TeraRanger
		for name, val := range set {
			if err := flag.Set(name, val); err != nil {
				return err
			}
		}
	}
	defaultConfig.TeraRanger = *teraranger.Default()
	return nil
}

// LoadFile overrides the config with the contents of a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %v", path, err)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Type == "" || c.ID == "" {
		return fmt.Errorf("device type and id must be specified")
	}
	return c.TeraRanger.Validate()
}
