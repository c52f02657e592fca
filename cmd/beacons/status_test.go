package main

import (
	"fmt"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/testutils"
	"github.com/srg/beacons/scanner"
)

func (s *CommandTestSuite) TestStatus() {
	tests := []struct {
		name     string
		setup    func(h *testutils.FakeHost)
		expected string
	}{
		{
			name:  "ready",
			setup: func(*testutils.FakeHost) {},
			expected: `
Capability:  modern
Supported:   yes
Bluetooth:   on
Location:    on`,
		},
		{
			name:  "adapter off",
			setup: func(h *testutils.FakeHost) { h.BluetoothOn = false },
			expected: `
Capability:  modern
Supported:   yes
Bluetooth:   off
Location:    on`,
		},
		{
			name:  "unsupported",
			setup: func(h *testutils.FakeHost) { h.Cap = scanner.CapabilityNone },
			expected: `
Capability:  none
Supported:   no
Bluetooth:   unknown
Location:    unknown`,
		},
		{
			name:  "host error",
			setup: func(h *testutils.FakeHost) {
				h.Cap = scanner.CapabilityLegacy
				h.Err = fmt.Errorf("%w: adapter gone", device.ErrNoAdapter)
			},
			expected: `
Capability:  legacy
Supported:   yes
Bluetooth:   unknown
Location:    unknown
Error:       no Bluetooth adapter found`,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.host = testutils.NewFakeHost(scanner.CapabilityModern)
			tt.setup(s.host)

			out, err := s.execute("status")
			s.Require().NoError(err, "status MUST succeed")
			testutils.NewTextAsserter(s.T()).
				WithOptions(testutils.WithTrimSpace(true), testutils.WithIgnoreTrailingWhitespace(true)).
				Assert(out, tt.expected)
		})
	}
}

func (s *CommandTestSuite) TestStatusJSON() {
	s.host.LocationOn = false

	out, err := s.execute("status", "--format", "json")
	s.Require().NoError(err, "status MUST succeed")
	testutils.NewJSONAsserter(s.T()).Assert(out, `{
		"capability": "modern",
		"supported": true,
		"bluetooth": true,
		"location": false
	}`)

	s.host.Cap = scanner.CapabilityNone
	out, err = s.execute("status", "--format", "json")
	s.Require().NoError(err, "status MUST succeed on unsupported hosts")
	testutils.NewJSONAsserter(s.T()).Assert(out, `{"supported": false, "bluetooth": null, "location": null}`)
}

func (s *CommandTestSuite) TestStatusInvalidFormat() {
	_, err := s.execute("status", "--format", "yaml")
	s.Require().Error(err, "unknown format MUST fail")
}

func (s *CommandTestSuite) TestEnable() {
	s.host.BluetoothOn = false

	out, err := s.execute("enable")
	s.Require().NoError(err, "enable MUST succeed")
	s.Equal("Bluetooth is on\n", out)
	s.Equal(1, s.host.BluetoothRequests(), "enable MUST request Bluetooth access once")
	s.Zero(s.host.LocationRequests(), "enable MUST NOT request location without --location")
	s.True(s.host.BluetoothOn, "adapter MUST be on after enable")
}

func (s *CommandTestSuite) TestEnableWithLocation() {
	out, err := s.execute("enable", "--location")
	s.Require().NoError(err, "enable MUST succeed")
	s.Equal("Bluetooth is on\nLocation services are on\n", out)
	s.Equal(1, s.host.LocationRequests(), "--location MUST request location access")
}

func (s *CommandTestSuite) TestEnableFailures() {
	tests := []struct {
		name     string
		setup    func(h *testutils.FakeHost)
		expected error
	}{
		{"unsupported", func(h *testutils.FakeHost) { h.Cap = scanner.CapabilityNone }, beacon.ErrUnsupportedPlatform},
		{"denied", func(h *testutils.FakeHost) { h.Err = device.ErrPermissionDenied }, beacon.ErrPermissionDenied},
		{"no adapter", func(h *testutils.FakeHost) { h.Err = device.ErrNoAdapter }, device.ErrNoAdapter},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.host = testutils.NewFakeHost(scanner.CapabilityModern)
			tt.setup(s.host)

			_, err := s.execute("enable")
			s.Require().ErrorIs(err, tt.expected)
		})
	}
}
