// Package config loads the daemon configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"neopixel-controller/internal/core"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "neopixel.yaml"

// DeviceConfig describes the strip this daemon drives.
type DeviceConfig struct {
	Name         string `yaml:"name"`
	NumLEDs      int    `yaml:"num_leds"`
	SettingsFile string `yaml:"settings_file"`
}

// StripConfig selects the pixel output driver.
type StripConfig struct {
	Driver       string `yaml:"driver"` // spi, console or none
	SPIPort      string `yaml:"spi_port"`
	FrequencyKHz int    `yaml:"frequency_khz"`
}

// IndicatorConfig selects the status LED output.
type IndicatorConfig struct {
	Driver      string        `yaml:"driver"` // gpio or none
	Chip        string        `yaml:"chip"`
	Line        int           `yaml:"line"`
	BlinkPeriod time.Duration `yaml:"blink_period"`
}

// BLEConfig configures the Nordic UART peripheral.
type BLEConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Name        string  `yaml:"name"`
	NotifyRate  float64 `yaml:"notify_rate"`
	NotifyBurst int     `yaml:"notify_burst"`
	MTU         int     `yaml:"mtu"`
}

// MQTTConfig configures MQTT and Home Assistant discovery.
type MQTTConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Broker             string `yaml:"broker"` // tcp://IP:PORT
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	ClientID           string `yaml:"client_id"`
	TopicPrefix        string `yaml:"topic_prefix"`
	HADiscoveryEnabled bool   `yaml:"ha_discovery_enabled"`
	HADiscoveryPrefix  string `yaml:"ha_discovery_prefix"`
}

// ServerConfig configures the HTTP and WebSocket server.
type ServerConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Port           string   `yaml:"port"`
	WebFilesDir    string   `yaml:"web_files_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the root of the configuration file.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Strip     StripConfig     `yaml:"strip"`
	Indicator IndicatorConfig `yaml:"indicator"`
	BLE       BLEConfig       `yaml:"ble"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`

	ScriptsDir    string `yaml:"scripts_dir"`
	SchedulesFile string `yaml:"schedules_file"`
	QueueSize     int    `yaml:"queue_size"`
}

// Load reads the file at path and applies defaults and validation.
// A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[Config] No config file at '%s', using defaults.", path)
	case err != nil:
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	}

	cfg.sanitize()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) sanitize() {
	c.Device.Name = strings.TrimSpace(c.Device.Name)
	c.Device.SettingsFile = strings.TrimSpace(c.Device.SettingsFile)
	c.Strip.Driver = strings.ToLower(strings.TrimSpace(c.Strip.Driver))
	c.Indicator.Driver = strings.ToLower(strings.TrimSpace(c.Indicator.Driver))
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.WebFilesDir = strings.TrimSpace(c.Server.WebFilesDir)
	c.MQTT.TopicPrefix = strings.Trim(strings.TrimSpace(c.MQTT.TopicPrefix), "/")
	c.ScriptsDir = strings.TrimSpace(c.ScriptsDir)
	c.SchedulesFile = strings.TrimSpace(c.SchedulesFile)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

func (c *Config) setDefaults() {
	// Device
	if c.Device.Name == "" {
		c.Device.Name = "neopixel"
	}
	if c.Device.NumLEDs == 0 {
		c.Device.NumLEDs = 30
	}
	if c.Device.SettingsFile == "" {
		c.Device.SettingsFile = "settings.json"
	}

	// Strip
	if c.Strip.Driver == "" {
		c.Strip.Driver = "none"
	}
	if c.Strip.SPIPort == "" {
		c.Strip.SPIPort = "/dev/spidev0.0"
	}
	if c.Strip.FrequencyKHz == 0 {
		c.Strip.FrequencyKHz = 800
	}

	// Indicator
	if c.Indicator.Driver == "" {
		c.Indicator.Driver = "none"
	}
	if c.Indicator.Chip == "" {
		c.Indicator.Chip = "gpiochip0"
	}
	if c.Indicator.BlinkPeriod == 0 {
		c.Indicator.BlinkPeriod = 300 * time.Millisecond
	}

	// BLE
	if c.BLE.Name == "" {
		c.BLE.Name = c.Device.Name
	}
	if c.BLE.NotifyRate == 0 {
		c.BLE.NotifyRate = 50
	}
	if c.BLE.NotifyBurst == 0 {
		c.BLE.NotifyBurst = 10
	}
	if c.BLE.MTU == 0 {
		c.BLE.MTU = 20
	}

	// MQTT
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "neopixel-controller"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "neopixel"
	}
	if c.MQTT.HADiscoveryPrefix == "" {
		c.MQTT.HADiscoveryPrefix = "homeassistant"
	}

	// Server
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.WebFilesDir == "" {
		c.Server.WebFilesDir = "./web"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:8080"}
	}

	// Files
	if c.ScriptsDir == "" {
		c.ScriptsDir = "scripts"
	}
	if c.SchedulesFile == "" {
		c.SchedulesFile = "schedules.json"
	}
	if c.QueueSize == 0 {
		c.QueueSize = core.DefaultQueueSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Device.NumLEDs < 0 {
		return fmt.Errorf("config error: 'device.num_leds' must not be negative")
	}
	switch c.Strip.Driver {
	case "spi", "console", "none":
	default:
		return fmt.Errorf("config error: unknown strip driver '%s'", c.Strip.Driver)
	}
	switch c.Indicator.Driver {
	case "gpio", "none":
	default:
		return fmt.Errorf("config error: unknown indicator driver '%s'", c.Indicator.Driver)
	}
	if c.Indicator.BlinkPeriod < 0 {
		return fmt.Errorf("config error: 'indicator.blink_period' must not be negative")
	}
	if c.BLE.NotifyRate < 0 || c.BLE.NotifyBurst < 0 {
		return fmt.Errorf("config error: 'ble.notify_rate' and 'ble.notify_burst' must be positive")
	}
	if c.BLE.MTU < 1 {
		return fmt.Errorf("config error: 'ble.mtu' must be positive")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("config error: 'queue_size' must be positive")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// ApplyLogging configures the global logger.
func (c *Config) ApplyLogging() {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
