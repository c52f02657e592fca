//go:build !linux

package goble

import (
	"fmt"
	"runtime"

	"github.com/srg/beacons/internal/device"
)

func newHostDevice(int) (Device, error) {
	return nil, fmt.Errorf("%w: raw HCI scanning on %s", device.ErrUnsupported, runtime.GOOS)
}
