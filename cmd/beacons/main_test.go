package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
)

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}

func TestVersionFlag(t *testing.T) {
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "beacons dev (commit none, built unknown)\n", out.String())
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"unsupported", beacon.NewError(beacon.UnsupportedPlatform, "no BLE"), "BLE beacon scanning is not supported on this host"},
		{"permission", fmt.Errorf("scan: %w", beacon.ErrPermissionDenied), "permission denied by the Bluetooth stack (run as root, or grant CAP_NET_RAW and CAP_NET_ADMIN)"},
		{"scan in progress", beacon.ErrScanInProgress, "another beacon scan is already running"},
		{"bluetooth off", fmt.Errorf("%w: hci0 down", device.ErrBluetoothOff), "Bluetooth is turned off (run 'beacons enable')"},
		{"no adapter", device.ErrNoAdapter, "no Bluetooth adapter found"},
		{"other", errors.New("boom"), "boom"},
		{"canceled", context.Canceled, context.Canceled.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUserError(tt.err))
		})
	}
}
