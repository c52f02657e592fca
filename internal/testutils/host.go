package testutils

import (
	"context"
	"sync/atomic"

	"github.com/srg/beacons/scanner"
)

// FakeHost is a scanner.Host with fixed capability and settable state.
// Err, when set, fails every check and request.
type FakeHost struct {
	Cap         scanner.Capability
	BluetoothOn bool
	LocationOn  bool
	Err         error

	bluetoothRequests atomic.Int32
	locationRequests  atomic.Int32
}

// NewFakeHost creates a host with Bluetooth and location on
func NewFakeHost(c scanner.Capability) *FakeHost {
	return &FakeHost{Cap: c, BluetoothOn: true, LocationOn: true}
}

func (h *FakeHost) Capability() scanner.Capability  { return h.Cap }
func (h *FakeHost) BluetoothEnabled() (bool, error) { return h.BluetoothOn, h.Err }
func (h *FakeHost) LocationEnabled() (bool, error)  { return h.LocationOn, h.Err }

func (h *FakeHost) RequestBluetoothAccess(context.Context) error {
	h.bluetoothRequests.Add(1)
	if h.Err == nil {
		h.BluetoothOn = true
	}
	return h.Err
}

func (h *FakeHost) RequestLocationAccess(context.Context) error {
	h.locationRequests.Add(1)
	if h.Err == nil {
		h.LocationOn = true
	}
	return h.Err
}

// BluetoothRequests returns how many times Bluetooth access was requested
func (h *FakeHost) BluetoothRequests() int { return int(h.bluetoothRequests.Load()) }

// LocationRequests returns how many times location access was requested
func (h *FakeHost) LocationRequests() int { return int(h.locationRequests.Load()) }
