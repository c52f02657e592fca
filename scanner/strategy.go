package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
	goble "github.com/srg/beacons/internal/device/go-ble"
	"github.com/srg/beacons/internal/device/tinygo"
	"github.com/srg/beacons/internal/groutine"
)

// Capability tags the scanning facilities of a host. It is resolved once,
// when the host handle is created.
type Capability int

const (
	CapabilityNone   Capability = iota // no BLE scanning
	CapabilityLegacy                   // raw HCI, one callback per report
	CapabilityModern                   // BlueZ discovery over D-Bus
)

func (c Capability) String() string {
	switch c {
	case CapabilityLegacy:
		return "legacy"
	case CapabilityModern:
		return "modern"
	default:
		return "none"
	}
}

// DefaultModernQueueSize is the ring capacity of the modern strategy
const DefaultModernQueueSize = 8

// Strategy starts and stops host discovery and shapes it into a Stream.
//
// Observe never starts a scan itself: the returned stream scans from Subscribe
// until the subscription is cancelled, and never completes on its own. Records
// equal to the one emitted just before them are dropped.
type Strategy interface {
	Observe() *Stream
}

// Options configures the built-in strategies
type Options struct {
	Logger *logrus.Logger

	// HCIIndex selects the HCI device of the legacy strategy (hci<N>)
	HCIIndex int

	// AdapterID selects the BlueZ adapter of the modern strategy ("" for the default)
	AdapterID string

	// QueueSize overrides the ring capacity; 0 keeps the strategy default
	QueueSize int

	// AdvertisedTxPower uses the tx power carried in the advertisement instead
	// of beacon.DefaultTxPower when one is present
	AdvertisedTxPower bool
}

func (o Options) logger() *logrus.Logger {
	if o.Logger == nil {
		return logrus.New()
	}
	return o.Logger
}

// deviceStrategy drives a device.ScanningDevice through a callbackAdapter
type deviceStrategy struct {
	name     string
	capacity int
	allowDup bool
	open     func() (device.ScanningDevice, error)
	opts     Options
	logger   *logrus.Logger
}

// NewLegacyStrategy scans through raw HCI sockets (github.com/go-ble/ble).
// Reports go through a single in-flight slot: a record not pulled before the
// next report arrives is replaced by it.
func NewLegacyStrategy(opts Options) Strategy {
	logger := opts.logger()
	capacity := 1
	if opts.QueueSize > 0 {
		capacity = opts.QueueSize
	}
	return &deviceStrategy{
		name:     CapabilityLegacy.String(),
		capacity: capacity,
		allowDup: true,
		open: func() (device.ScanningDevice, error) {
			return goble.NewScanner(opts.HCIIndex, logger)
		},
		opts:   opts,
		logger: logger,
	}
}

// NewModernStrategy scans through BlueZ (tinygo.org/x/bluetooth). Reports are
// queued in a small ring that drops the oldest record when the consumer lags.
func NewModernStrategy(opts Options) Strategy {
	logger := opts.logger()
	capacity := DefaultModernQueueSize
	if opts.QueueSize > 0 {
		capacity = opts.QueueSize
	}
	return &deviceStrategy{
		name:     CapabilityModern.String(),
		capacity: capacity,
		allowDup: true,
		open: func() (device.ScanningDevice, error) {
			return tinygo.NewScanner(opts.AdapterID, logger)
		},
		opts:   opts,
		logger: logger,
	}
}

// StrategyFor returns the built-in strategy for c
func StrategyFor(c Capability, opts Options) (Strategy, error) {
	switch c {
	case CapabilityLegacy:
		return NewLegacyStrategy(opts), nil
	case CapabilityModern:
		return NewModernStrategy(opts), nil
	default:
		return nil, beacon.NewError(beacon.UnsupportedPlatform, "no scan strategy for capability %s", c)
	}
}

func (s *deviceStrategy) Observe() *Stream {
	return NewStream(s.start).Distinct()
}

func (s *deviceStrategy) start(ctx context.Context) (Scan, error) {
	dev, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s scanner: %w", s.name, classifyHostError(err))
	}

	log := s.logger.WithFields(logrus.Fields{
		"strategy": s.name,
		"capacity": s.capacity,
	})

	adapter := newCallbackAdapter(s.capacity, s.opts.AdvertisedTxPower, s.logger)
	scanCtx, cancel := context.WithCancel(ctx)

	done := groutine.Go(scanCtx, s.name+"-scan", func(ctx context.Context) {
		log := log.WithField("goroutine", groutine.GetName(ctx))
		err := dev.Scan(ctx, s.allowDup, adapter.OnAdvertisement)
		switch {
		case ctx.Err() != nil:
			// stopped
		case err != nil:
			log.WithError(err).Error("BLE scan failed")
			adapter.Fail(fmt.Errorf("%s scan failed: %w", s.name, classifyHostError(err)))
		default:
			log.Info("BLE scan ended by host")
			adapter.Close()
		}
	})

	log.Info("Started BLE scan")
	return &deviceScan{adapter: adapter, cancel: cancel, done: done, log: log}, nil
}

// deviceScan is the live registration of a deviceStrategy
type deviceScan struct {
	adapter *callbackAdapter
	cancel  context.CancelFunc
	done    <-chan struct{}
	log     *logrus.Entry
	once    sync.Once
}

func (s *deviceScan) Next(ctx context.Context) (*beacon.Beacon, error) {
	return s.adapter.Next(ctx)
}

// Stop cancels the host scan and waits for it to be released. Later calls are no-ops.
func (s *deviceScan) Stop() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.adapter.Close()

		m := s.adapter.Metrics()
		s.log.WithFields(logrus.Fields{
			"delivered":   m.Processed,
			"overwritten": m.Overwritten,
		}).Info("Stopped BLE scan")
	})
	return nil
}

// classifyHostError maps device sentinels to beacon error kinds, keeping both in the chain
func classifyHostError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, device.ErrPermissionDenied):
		return fmt.Errorf("%w: %w", beacon.ErrPermissionDenied, err)
	case errors.Is(err, device.ErrUnsupported):
		return fmt.Errorf("%w: %w", beacon.ErrUnsupportedPlatform, err)
	default:
		return err
	}
}
