//go:build !linux

package tinygo

import "tinygo.org/x/bluetooth"

// Adapter ids only exist on BlueZ; every other host has a single adapter.
func hostAdapter(string) Adapter {
	return bluetooth.DefaultAdapter
}
