package main

import (
	"errors"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
)

// FormatUserError turns library errors into actionable messages
func FormatUserError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, beacon.ErrUnsupportedPlatform):
		return "BLE beacon scanning is not supported on this host"
	case errors.Is(err, beacon.ErrPermissionDenied):
		return "permission denied by the Bluetooth stack (run as root, or grant CAP_NET_RAW and CAP_NET_ADMIN)"
	case errors.Is(err, beacon.ErrScanInProgress):
		return "another beacon scan is already running"
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off (run 'beacons enable')"
	case errors.Is(err, device.ErrNoAdapter):
		return "no Bluetooth adapter found"
	default:
		return err.Error()
	}
}
