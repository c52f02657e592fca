package beacon_test

import (
	"testing"

	"github.com/srg/beacons/beacon"
	"github.com/stretchr/testify/suite"
)

type HardwareAddressTestSuite struct {
	suite.Suite
}

func (suite *HardwareAddressTestSuite) TestParseAcceptsValidAddresses() {
	valid := []string{
		"AA:BB:CC:DD:EE:FF",
		"aa:bb:cc:dd:ee:ff",
		"00-11-22-33-44-55",
		"0a:1B-2c:3D-4e:5F",
	}

	for _, s := range valid {
		suite.Run(s, func() {
			addr, err := beacon.ParseHardwareAddress(s)

			suite.Require().NoError(err, "valid address MUST parse")
			suite.Equal(s, addr.String(), "address MUST be exposed unchanged")
			suite.False(addr.IsZero())
		})
	}
}

func (suite *HardwareAddressTestSuite) TestParseRejectsInvalidAddresses() {
	invalid := []string{
		"",
		"AA:BB:CC:DD:EE",
		"AA:BB:CC:DD:EE:FF:00",
		"AA:BB:CC:DD:EE:GG",
		"AABBCCDDEEFF",
		"AA.BB.CC.DD.EE.FF",
		" AA:BB:CC:DD:EE:FF",
		"01234567-89AB-CDEF-0123-456789ABCDEF",
	}

	for _, s := range invalid {
		suite.Run(s, func() {
			_, err := beacon.ParseHardwareAddress(s)

			suite.Error(err, "invalid address MUST be rejected")
			suite.ErrorIs(err, beacon.ErrInvalidArgument, "error MUST be an invalid argument")
			suite.True(beacon.IsKind(err, beacon.InvalidArgument))
		})
	}
}

func (suite *HardwareAddressTestSuite) TestEqualityIsByValue() {
	a := beacon.MustParseHardwareAddress("AA:BB:CC:DD:EE:FF")
	b := beacon.MustParseHardwareAddress("AA:BB:CC:DD:EE:FF")
	c := beacon.MustParseHardwareAddress("aa:bb:cc:dd:ee:ff")

	suite.Equal(a, b)
	suite.True(a == b, "same string MUST compare equal")
	suite.False(a == c, "addresses are not normalized")
}

func (suite *HardwareAddressTestSuite) TestMustParsePanicsOnInvalidInput() {
	suite.Panics(func() {
		beacon.MustParseHardwareAddress("not-a-mac")
	})
}

func TestHardwareAddressTestSuite(t *testing.T) {
	suite.Run(t, new(HardwareAddressTestSuite))
}
