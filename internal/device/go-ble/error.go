package goble

import (
	"fmt"
	"strings"

	"github.com/srg/beacons/internal/device"
)

// NormalizeError maps HCI socket errors to device sentinels before falling
// back to the generic mapping.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "can't init hci") && containsIgnoreCase(msg, "operation not permitted"):
		return fmt.Errorf("%w: %v (raw HCI scanning needs CAP_NET_ADMIN)", device.ErrPermissionDenied, err)
	case containsIgnoreCase(msg, "can't init hci") && containsIgnoreCase(msg, "no such device"):
		return fmt.Errorf("%w: %v", device.ErrNoAdapter, err)
	case containsIgnoreCase(msg, "network is down"):
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	default:
		return device.NormalizeError(err)
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
