package acquire

import (
	"log/slog"

	"github.com/itohio/gochrom/pkg/config"
	"github.com/itohio/gochrom/pkg/device"
	"github.com/itohio/gochrom/pkg/record"
)

// OptionsFromConfig builds loop options from the application configuration.
// With useMock set the loop talks to a simulated sensor instead of a port.
func OptionsFromConfig(cfg *config.Config, useMock bool, logger *slog.Logger) Options {
	if logger == nil {
		logger = slog.Default()
	}

	chOpts := device.Options{
		BaudRate:    cfg.Serial.BaudRate,
		ReadTimeout: cfg.Serial.ReadTimeout,
		SettleDelay: cfg.Serial.SettleDelay,
		QueueSize:   cfg.Acquisition.QueueSize,
		Logger:      logger,
	}

	opts := Options{
		PollInterval:    cfg.Acquisition.PollInterval,
		MaxLinesPerTick: cfg.Acquisition.MaxLinesPerTick,
		Window:          cfg.Filter.Window,
		Sink:            record.FileOpener(cfg.Recording.Path),
		Logger:          logger,
	}

	switch {
	case useMock:
		mock := cfg.Mock
		opts.Locate = func() (string, error) {
			return device.MockPort, nil
		}
		opts.Open = func(string) (*device.Channel, error) {
			return device.OpenMock(&mock, chOpts), nil
		}
		return opts

	case cfg.Serial.Port != "":
		port := cfg.Serial.Port
		opts.Locate = func() (string, error) {
			return port, nil
		}

	default:
		matcher := device.Matcher{
			Markers:   cfg.Serial.Markers,
			VendorIDs: cfg.Serial.VendorIDs,
		}
		opts.Locate = func() (string, error) {
			return device.Locate(matcher)
		}
	}

	opts.Open = func(port string) (*device.Channel, error) {
		return device.Open(port, chOpts)
	}

	return opts
}
