package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/srg/beacons/internal/host"
	"github.com/srg/beacons/scanner"
)

// Tx power sources
const (
	TxPowerFixed      = "fixed"
	TxPowerAdvertised = "advertised"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level" default:"info"`

	// Backend is auto, modern (BlueZ) or legacy (raw HCI)
	Backend   string `yaml:"backend" default:"auto"`
	AdapterID string `yaml:"adapter_id"`
	HCIIndex  int    `yaml:"hci_index" default:"0"`

	// TxPower is fixed (calibrated -59 dBm) or advertised
	TxPower   string `yaml:"tx_power" default:"fixed"`
	QueueSize int    `yaml:"queue_size" default:"0"`

	SurfacePermissionErrors bool `yaml:"surface_permission_errors" default:"false"`

	// ScanTimeout of zero scans until interrupted
	ScanTimeout  time.Duration `yaml:"scan_timeout" default:"0s"`
	OutputFormat string        `yaml:"output_format" default:"table"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := host.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if c.HCIIndex < 0 {
		return fmt.Errorf("hci_index: must not be negative, got %d", c.HCIIndex)
	}
	switch c.TxPower {
	case TxPowerFixed, TxPowerAdvertised:
	default:
		return fmt.Errorf("tx_power: unknown source %q (expected fixed or advertised)", c.TxPower)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue_size: must not be negative, got %d", c.QueueSize)
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout: must not be negative, got %s", c.ScanTimeout)
	}
	switch c.OutputFormat {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("output_format: unknown format %q (expected table or json)", c.OutputFormat)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// HostOptions returns the host handle options for this config
func (c *Config) HostOptions(logger *logrus.Logger) []host.Option {
	backend, _ := host.ParseBackend(c.Backend)
	opts := []host.Option{
		host.WithBackend(backend),
		host.WithHCIIndex(c.HCIIndex),
		host.WithLogger(logger),
	}
	if c.AdapterID != "" {
		opts = append(opts, host.WithAdapterID(c.AdapterID))
	}
	return opts
}

// ScannerOptions returns the facade options for this config
func (c *Config) ScannerOptions(logger *logrus.Logger) []scanner.Option {
	return []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithSurfacePermissionErrors(c.SurfacePermissionErrors),
		scanner.WithStrategyOptions(scanner.Options{
			Logger:            logger,
			HCIIndex:          c.HCIIndex,
			AdapterID:         c.AdapterID,
			QueueSize:         c.QueueSize,
			AdvertisedTxPower: c.TxPower == TxPowerAdvertised,
		}),
	}
}
