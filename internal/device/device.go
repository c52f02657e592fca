package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Host-level sentinel errors
var (
	ErrBluetoothOff     = errors.New("bluetooth is turned off")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupported      = errors.New("unsupported")
	ErrNoAdapter        = errors.New("no bluetooth adapter")
)

// NormalizeError maps well-known backend error strings to sentinel errors.
// The original error is kept in the chain.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, sentinel := range []error{ErrBluetoothOff, ErrPermissionDenied, ErrUnsupported, ErrNoAdapter} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "is Bluetooth turned on"),
		containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "org.bluez.Error.NotReady"),
		containsIgnoreCase(msg, "adapter is not powered"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "operation not permitted"),
		containsIgnoreCase(msg, "permission denied"),
		containsIgnoreCase(msg, "org.bluez.Error.NotAuthorized"),
		containsIgnoreCase(msg, "org.freedesktop.DBus.Error.AccessDenied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case containsIgnoreCase(msg, "no such device"),
		containsIgnoreCase(msg, "no bluetooth adapter"),
		containsIgnoreCase(msg, "org.freedesktop.DBus.Error.ServiceUnknown"),
		containsIgnoreCase(msg, "org.freedesktop.DBus.Error.UnknownObject"):
		return fmt.Errorf("%w: %v", ErrNoAdapter, err)
	default:
		return err
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// TxPowerUnknown is reported by TxPowerLevel when the advertisement carries no tx power
const TxPowerUnknown = 127

// Advertisement is a single advertising report delivered by a scan
type Advertisement interface {
	Addr() string
	LocalName() string
	RSSI() int
	TxPowerLevel() int
	Connectable() bool
	ManufacturerData() []byte

	// Payload returns the advertisement bytes handed to beacon records.
	// Backends without access to the raw report return the manufacturer data.
	Payload() []byte
}

// ScanningDevice represents a host device capable of scanning for advertisements.
// Scan blocks, calling handler from the backend's delivery goroutine, until ctx
// is done or the scan fails.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}
