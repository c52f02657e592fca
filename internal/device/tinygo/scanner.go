package tinygo

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/groutine"
	"tinygo.org/x/bluetooth"
)

// Adapter is the part of *bluetooth.Adapter used for discovery
type Adapter interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// AdapterFactory returns the host adapter with the given id (can be overridden in tests)
//
//nolint:revive // AdapterFactory name is intentional for test mocking
var AdapterFactory = func(adapterID string) Adapter {
	return hostAdapter(adapterID)
}

type bluezScanner struct {
	adapter Adapter
	logger  *logrus.Logger
}

// NewScanner enables the adapter and returns a device.ScanningDevice over it
func NewScanner(adapterID string, logger *logrus.Logger) (device.ScanningDevice, error) {
	if logger == nil {
		logger = logrus.New()
	}

	adapter := AdapterFactory(adapterID)
	if err := adapter.Enable(); err != nil {
		return nil, device.NormalizeError(err)
	}
	return &bluezScanner{adapter: adapter, logger: logger}, nil
}

const (
	// stopRetryInterval paces StopScan while the adapter has not registered
	// its scan session yet
	stopRetryInterval = 10 * time.Millisecond

	// stopTimeout bounds the wait for the adapter scan to return once stopped
	stopTimeout = 5 * time.Second
)

// Scan runs the adapter scan in its own goroutine until ctx is done.
// BlueZ always reports duplicates, so allowDup is ignored.
func (s *bluezScanner) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	scanErr := make(chan error, 1)
	groutine.Go(ctx, "bluez-scan", func(ctx context.Context) {
		err := s.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			handler(NewScanAdvertisement(r))
		})
		s.logger.WithField("goroutine", groutine.GetName(ctx)).Debug("BlueZ scan returned")
		scanErr <- err
	})

	select {
	case err := <-scanErr:
		// Scan ended without being stopped
		if err == nil {
			return nil
		}
		return device.NormalizeError(err)

	case <-ctx.Done():
		s.stop(scanErr)
		return ctx.Err()
	}
}

// stop ends the adapter scan and waits for it to return.
//
// StopScan reports "no scan in progress" until Scan has registered its
// session, so a stop issued early is retried until Scan returns. Any other
// StopScan failure is logged and the scan goroutine is abandoned: it may never
// return.
func (s *bluezScanner) stop(scanErr <-chan error) {
	retry := time.NewTicker(stopRetryInterval)
	defer retry.Stop()
	timeout := time.NewTimer(stopTimeout)
	defer timeout.Stop()

	for attempt := 1; ; attempt++ {
		err := s.adapter.StopScan()
		if err != nil && !isNotScanningError(err) {
			s.logger.WithError(err).Warn("Failed to stop BlueZ scan")
			return
		}

		if err == nil {
			select {
			case <-scanErr:
			case <-timeout.C:
				s.logger.WithField("timeout", stopTimeout).Warn("BlueZ scan did not return after stop")
			}
			return
		}

		select {
		case <-scanErr:
			if attempt > 1 {
				s.logger.WithField("attempts", attempt).Debug("BlueZ scan ended before it registered")
			}
			return
		case <-retry.C:
		case <-timeout.C:
			s.logger.WithField("timeout", stopTimeout).Warn("BlueZ scan did not register in time")
			return
		}
	}
}

// isNotScanningError reports StopScan errors meaning no scan session is
// registered, either not yet or not anymore
func isNotScanningError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no scan in progress") ||
		strings.Contains(msg, "not scanning") ||
		strings.Contains(msg, "no discovery started")
}
