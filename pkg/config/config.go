package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial" toml:"serial"`
	Filter      FilterConfig      `yaml:"filter" toml:"filter"`
	Acquisition AcquisitionConfig `yaml:"acquisition" toml:"acquisition"`
	Recording   RecordingConfig   `yaml:"recording" toml:"recording"`
	Display     DisplayConfig     `yaml:"display" toml:"display"`
	Log         LogConfig         `yaml:"log" toml:"log"`
	Mock        MockConfig        `yaml:"mock" toml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port        string        `yaml:"port" toml:"port"` // Skips device scan when set
	BaudRate    int           `yaml:"baud_rate" toml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay" toml:"settle_delay"` // Board auto-reset after open
	Markers     []string      `yaml:"markers" toml:"markers"`           // Port description substrings
	VendorIDs   []string      `yaml:"vendor_ids" toml:"vendor_ids"`     // USB VIDs, hex
}

// FilterConfig contains moving average parameters.
type FilterConfig struct {
	Window int `yaml:"window" toml:"window"`
}

// AcquisitionConfig contains poll loop parameters.
type AcquisitionConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	MaxLinesPerTick int           `yaml:"max_lines_per_tick" toml:"max_lines_per_tick"`
	QueueSize       int           `yaml:"queue_size" toml:"queue_size"`
}

// RecordingConfig contains output file parameters.
type RecordingConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// DisplayConfig contains plot parameters.
type DisplayConfig struct {
	MaxPoints       int           `yaml:"max_points" toml:"max_points"`
	RefreshInterval time.Duration `yaml:"refresh_interval" toml:"refresh_interval"`
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"` // debug, info, warn, error
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Baseline   float64       `yaml:"baseline" toml:"baseline"`       // Sensor reading with clean air
	NoiseLevel float64       `yaml:"noise_level" toml:"noise_level"` // Peak-to-peak noise
	PeakHeight float64       `yaml:"peak_height" toml:"peak_height"` // Peak amplitude above baseline
	PeakWidth  time.Duration `yaml:"peak_width" toml:"peak_width"`   // Gaussian sigma
	PeakPeriod time.Duration `yaml:"peak_period" toml:"peak_period"` // Time between eluted peaks
	SampleRate time.Duration `yaml:"sample_rate" toml:"sample_rate"` // Line interval
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate:    9600,
			ReadTimeout: time.Second,
			SettleDelay: 2 * time.Second,
			Markers:     []string{"Arduino", "CH340"},
			VendorIDs:   []string{"2341", "1A86"},
		},
		Filter: FilterConfig{
			Window: 6,
		},
		Acquisition: AcquisitionConfig{
			PollInterval:    100 * time.Millisecond,
			MaxLinesPerTick: 256,
			QueueSize:       1024,
		},
		Recording: RecordingConfig{
			Path: "chromatograph_data.csv",
		},
		Display: DisplayConfig{
			MaxPoints:       1000,
			RefreshInterval: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Mock: MockConfig{
			Baseline:   120,
			NoiseLevel: 4,
			PeakHeight: 400,
			PeakWidth:  3 * time.Second,
			PeakPeriod: 30 * time.Second,
			SampleRate: 100 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML or TOML file, picked by extension.
// If the file doesn't exist or fields are missing, it uses default values.
// The file is never written back.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.ReadTimeout <= 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}
	if c.Serial.SettleDelay < 0 {
		c.Serial.SettleDelay = def.Serial.SettleDelay
	}
	if len(c.Serial.Markers) == 0 {
		c.Serial.Markers = def.Serial.Markers
	}

	if c.Filter.Window <= 0 {
		c.Filter.Window = def.Filter.Window
	}

	if c.Acquisition.PollInterval <= 0 {
		c.Acquisition.PollInterval = def.Acquisition.PollInterval
	}
	if c.Acquisition.MaxLinesPerTick <= 0 {
		c.Acquisition.MaxLinesPerTick = def.Acquisition.MaxLinesPerTick
	}
	if c.Acquisition.QueueSize <= 0 {
		c.Acquisition.QueueSize = def.Acquisition.QueueSize
	}

	if c.Recording.Path == "" {
		c.Recording.Path = def.Recording.Path
	}

	if c.Display.MaxPoints <= 0 {
		c.Display.MaxPoints = def.Display.MaxPoints
	}
	if c.Display.RefreshInterval <= 0 {
		c.Display.RefreshInterval = def.Display.RefreshInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	if c.Mock.SampleRate <= 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.PeakWidth <= 0 {
		c.Mock.PeakWidth = def.Mock.PeakWidth
	}
	if c.Mock.PeakPeriod <= 0 {
		c.Mock.PeakPeriod = def.Mock.PeakPeriod
	}
}
