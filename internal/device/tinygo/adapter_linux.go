//go:build linux

package tinygo

import "tinygo.org/x/bluetooth"

func hostAdapter(adapterID string) Adapter {
	if adapterID == "" {
		return bluetooth.DefaultAdapter
	}
	return bluetooth.NewAdapter(adapterID)
}
