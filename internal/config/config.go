package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tempdeckctl/pkg/tempdeck"
)

type Config struct {
	LogLevel          zapcore.Level
	USBIDs            []string `mapstructure:"usb_ids"`
	ReadTimeoutMillis uint32   `mapstructure:"read_timeout_millis"`
}

// ReadTimeout returns the configured per-line serial read timeout.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMillis) * time.Millisecond
}

// ParsedUSBIDs parses the configured vid:pid pairs. Load already
// validated them, so errors here only happen for hand-built configs.
func (c Config) ParsedUSBIDs() ([]tempdeck.USBID, error) {
	ids := make([]tempdeck.USBID, 0, len(c.USBIDs))
	for _, raw := range c.USBIDs {
		id, err := tempdeck.ParseUSBID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Load reads configuration from the environment (prefix TEMPDECK) and,
// when CONFIG_FILE points at one, a yaml config file.
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("tempdeck")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			if err := viper.ReadInConfig(); err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.WarnLevel
	}

	// check bounds
	if cfg.ReadTimeoutMillis < 100 {
		return nil, errors.New("config param read_timeout_millis should be >= 100")
	}
	if len(cfg.USBIDs) == 0 {
		return nil, errors.New("config param usb_ids should list at least one vid:pid pair")
	}
	if _, err := cfg.ParsedUSBIDs(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("usb_ids", []string{tempdeck.DefaultUSBIDs[0].String()})
	// 500ms is the firmware's line turnaround bound, not a tuning knob.
	viper.SetDefault("read_timeout_millis", 500)
}
