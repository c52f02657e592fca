//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func newHostDevice(hciIndex int) (Device, error) {
	dev, err := linux.NewDevice(ble.OptDeviceID(hciIndex))
	if err != nil {
		return nil, err
	}
	return dev, nil
}
