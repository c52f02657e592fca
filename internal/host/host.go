// Package host is the platform handle the beacon facade is built on: it
// resolves the scanning capability once and exposes adapter state.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/scanner"
)

// Backend selects the scanning backend
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendModern Backend = "modern"
	BackendLegacy Backend = "legacy"
)

// ParseBackend parses a backend name, "" meaning auto
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendModern, BackendLegacy:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, modern or legacy)", s)
	}
}

const defaultCallTimeout = 5 * time.Second

// Host implements scanner.Host
type Host struct {
	capability scanner.Capability
	adapterID  string
	bus        Bus
	logger     *logrus.Logger
	timeout    time.Duration
}

// Option configures a Host
type Option func(*config)

type config struct {
	backend   Backend
	adapterID string
	hciIndex  int
	bus       Bus
	logger    *logrus.Logger
	timeout   time.Duration
}

// WithBackend forces a backend instead of auto detection
func WithBackend(b Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithAdapterID sets the BlueZ adapter (hci0 by default)
func WithAdapterID(id string) Option {
	return func(c *config) { c.adapterID = id }
}

// WithHCIIndex sets the HCI device queried when no adapter id is set
func WithHCIIndex(index int) Option {
	return func(c *config) { c.hciIndex = index }
}

// WithBus uses bus instead of connecting to the system bus
func WithBus(bus Bus) Option {
	return func(c *config) { c.bus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithCallTimeout bounds the bus calls made without a caller context
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates the host handle and resolves its capability
func New(opts ...Option) *Host {
	cfg := &config{backend: BackendAuto, timeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logrus.New()
	}
	if cfg.adapterID == "" {
		cfg.adapterID = fmt.Sprintf("hci%d", cfg.hciIndex)
	}

	if cfg.bus == nil && platformSupported {
		bus, err := ConnectBus()
		if err != nil {
			cfg.logger.WithError(err).Debug("BlueZ D-Bus unavailable")
		} else {
			cfg.bus = bus
		}
	}

	h := &Host{
		capability: resolveCapability(cfg.backend, cfg.bus != nil),
		adapterID:  cfg.adapterID,
		bus:        cfg.bus,
		logger:     cfg.logger,
		timeout:    cfg.timeout,
	}

	h.logger.WithFields(logrus.Fields{
		"backend":    string(cfg.backend),
		"adapter":    h.adapterID,
		"capability": h.capability.String(),
	}).Debug("Resolved host capability")
	return h
}

// Capability returns the capability resolved by New
func (h *Host) Capability() scanner.Capability {
	return h.capability
}

// AdapterID returns the adapter the host queries
func (h *Host) AdapterID() string {
	return h.adapterID
}

// BluetoothEnabled reports whether the adapter is powered
func (h *Host) BluetoothEnabled() (bool, error) {
	if h.bus == nil {
		return false, fmt.Errorf("cannot query adapter %s: %w", h.adapterID, device.ErrUnsupported)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	v, err := h.bus.GetProperty(ctx, adapterPath(h.adapterID), "Powered")
	if err != nil {
		return false, fmt.Errorf("failed to read %s power state: %w", h.adapterID, device.NormalizeError(err))
	}

	powered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected Powered value %v on %s", v, h.adapterID)
	}
	return powered, nil
}

// LocationEnabled is always true: Linux does not gate BLE scanning on location services
func (h *Host) LocationEnabled() (bool, error) {
	return true, nil
}

// RequestBluetoothAccess powers the adapter on
func (h *Host) RequestBluetoothAccess(ctx context.Context) error {
	on, err := h.BluetoothEnabled()
	if err != nil {
		return err
	}
	if on {
		h.logger.WithField("adapter", h.adapterID).Debug("Adapter already powered")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.bus.SetProperty(ctx, adapterPath(h.adapterID), "Powered", true); err != nil {
		return fmt.Errorf("failed to power on %s: %w", h.adapterID, device.NormalizeError(err))
	}
	h.logger.WithField("adapter", h.adapterID).Info("Powered on adapter")
	return nil
}

// RequestLocationAccess has nothing to request on Linux
func (h *Host) RequestLocationAccess(context.Context) error {
	h.logger.Debug("Location access is not required for BLE scanning")
	return nil
}

// Close releases the bus connection
func (h *Host) Close() error {
	if h.bus == nil {
		return nil
	}
	return h.bus.Close()
}

func resolveCapability(backend Backend, haveBus bool) scanner.Capability {
	if !platformSupported {
		return scanner.CapabilityNone
	}
	switch backend {
	case BackendLegacy:
		return scanner.CapabilityLegacy
	case BackendModern:
		return scanner.CapabilityModern
	}
	if haveBus {
		return scanner.CapabilityModern
	}
	return scanner.CapabilityLegacy
}
