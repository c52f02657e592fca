package goble

import (
	"context"
	"errors"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/beacons/internal/device"
)

// Device is the part of ble.Device used for discovery
type Device interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Stop() error
}

// DeviceFactory opens the HCI device with the given index (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func(hciIndex int) (Device, error) {
	return newHostDevice(hciIndex)
}

// bleScanner wraps a go-ble device to implement device.ScanningDevice
type bleScanner struct {
	dev    Device
	logger *logrus.Logger
}

// NewScanner opens the HCI device and returns a device.ScanningDevice over it.
// The device is released when Scan returns.
func NewScanner(hciIndex int, logger *logrus.Logger) (device.ScanningDevice, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dev, err := DeviceFactory(hciIndex)
	if err != nil {
		return nil, NormalizeError(err)
	}
	return &bleScanner{dev: dev, logger: logger}, nil
}

// Scan converts every ble.Advertisement to a device.Advertisement and blocks until ctx is done
func (s *bleScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	}

	err := s.dev.Scan(ctx, allowDup, bleHandler)
	if stopErr := s.dev.Stop(); stopErr != nil {
		s.logger.WithError(stopErr).Debug("Failed to release HCI device")
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return NormalizeError(err)
	}
	return err
}
