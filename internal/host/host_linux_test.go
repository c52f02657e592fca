package host_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/beacons/internal/host"
	"github.com/srg/beacons/internal/testutils"
	"github.com/srg/beacons/scanner"
)

func TestCapability(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	bus := &testutils.MockBus{}

	tests := []struct {
		name     string
		opts     []host.Option
		expected scanner.Capability
	}{
		{name: "auto with BlueZ", opts: []host.Option{host.WithBus(bus)}, expected: scanner.CapabilityModern},
		{name: "auto without BlueZ", expected: scanner.CapabilityLegacy},
		{name: "forced legacy", opts: []host.Option{host.WithBus(bus), host.WithBackend(host.BackendLegacy)}, expected: scanner.CapabilityLegacy},
		{name: "forced modern", opts: []host.Option{host.WithBackend(host.BackendModern)}, expected: scanner.CapabilityModern},
	}

	original := host.ConnectBus
	host.ConnectBus = func() (host.Bus, error) { return nil, errors.New("no system bus") }
	defer func() { host.ConnectBus = original }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := host.New(append(tt.opts, host.WithLogger(helper.Logger))...)
			assert.Equal(t, tt.expected, h.Capability())
		})
	}
}
