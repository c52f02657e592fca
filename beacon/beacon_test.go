package beacon_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/srg/beacons/beacon"
	"github.com/stretchr/testify/suite"
)

type BeaconTestSuite struct {
	suite.Suite
}

func (suite *BeaconTestSuite) newBeacon(addr string, rssi int, opts ...beacon.Option) *beacon.Beacon {
	b, err := beacon.New(addr, rssi, []byte{0x02, 0x15}, opts...)
	suite.Require().NoError(err)
	return b
}

func (suite *BeaconTestSuite) TestDistance() {
	tests := []struct {
		rssi     int
		expected float64
	}{
		{rssi: -59, expected: 1.0},
		{rssi: -39, expected: 0.1},
		{rssi: -79, expected: 10.0},
		{rssi: -65, expected: math.Pow(10, 6.0/20)},
	}

	for _, tt := range tests {
		b := suite.newBeacon("AA:BB:CC:DD:EE:FF", tt.rssi)

		suite.InDelta(tt.expected, b.Distance(), 1e-12, "distance for rssi %d", tt.rssi)
		suite.Equal(beacon.DefaultTxPower, b.TxPower())
	}
}

func (suite *BeaconTestSuite) TestDistanceWithTxPower() {
	b := suite.newBeacon("AA:BB:CC:DD:EE:FF", -60, beacon.WithTxPower(-40))

	suite.InDelta(10.0, b.Distance(), 1e-12)
	suite.Equal(-40, b.TxPower())
}

func (suite *BeaconTestSuite) TestProximity() {
	suite.Equal(beacon.Immediate, suite.newBeacon("AA:BB:CC:DD:EE:FF", -39).Proximity())
	suite.Equal(beacon.Near, suite.newBeacon("AA:BB:CC:DD:EE:FF", -59).Proximity())
	suite.Equal(beacon.Far, suite.newBeacon("AA:BB:CC:DD:EE:FF", -79).Proximity())
}

func (suite *BeaconTestSuite) TestNewRejectsInvalidAddress() {
	b, err := beacon.New("01234567-89AB-CDEF-0123-456789ABCDEF", -59, nil)

	suite.Nil(b)
	suite.ErrorIs(err, beacon.ErrInvalidArgument, "invalid address MUST fail construction")
}

func (suite *BeaconTestSuite) TestEqual() {
	base := suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithName("one"))

	suite.Run("same address rssi payload are equal", func() {
		other := suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithName("two"), beacon.WithTxPower(-70))
		suite.True(base.Equal(other), "name and tx power MUST NOT take part in equality")
	})

	suite.Run("different rssi is distinct", func() {
		suite.False(base.Equal(suite.newBeacon("AA:BB:CC:DD:EE:FF", -65)))
	})

	suite.Run("different address is distinct", func() {
		suite.False(base.Equal(suite.newBeacon("11:22:33:44:55:66", -59)))
	})

	suite.Run("different payload is distinct", func() {
		other, err := beacon.New("AA:BB:CC:DD:EE:FF", -59, []byte{0x01})
		suite.Require().NoError(err)
		suite.False(base.Equal(other))
	})

	suite.Run("nil handling", func() {
		var nilBeacon *beacon.Beacon
		suite.False(base.Equal(nil))
		suite.True(nilBeacon.Equal(nil))
	})
}

func (suite *BeaconTestSuite) TestPayloadIsCopied() {
	raw := []byte{1, 2, 3}
	b, err := beacon.New("AA:BB:CC:DD:EE:FF", -59, raw)
	suite.Require().NoError(err)

	raw[0] = 9
	suite.Equal([]byte{1, 2, 3}, b.Payload(), "constructor MUST copy the payload")

	out := b.Payload()
	out[1] = 9
	suite.Equal([]byte{1, 2, 3}, b.Payload(), "accessor MUST return a copy")
}

func (suite *BeaconTestSuite) TestName() {
	named := suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithName("kontakt"))
	name, ok := named.Name()
	suite.True(ok)
	suite.Equal("kontakt", name)

	_, ok = suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithName("")).Name()
	suite.False(ok, "empty name MUST leave the beacon unnamed")
}

func (suite *BeaconTestSuite) TestMarshalJSON() {
	b := suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithName("estimote"))

	data, err := json.Marshal(b)
	suite.Require().NoError(err)

	var decoded map[string]interface{}
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.Equal("AA:BB:CC:DD:EE:FF", decoded["address"])
	suite.Equal("estimote", decoded["name"])
	suite.Equal(float64(-59), decoded["rssi"])
	suite.Equal(1.0, decoded["distance"])
	suite.Equal("NEAR", decoded["proximity"])
	suite.Equal("0215", decoded["payload"])
	suite.NotContains(decoded, "manufacturer_data", "absent manufacturer data MUST be omitted")
}

func (suite *BeaconTestSuite) TestManufacturerData() {
	raw := []byte{0x4c, 0x00, 0x02, 0x15}
	b := suite.newBeacon("AA:BB:CC:DD:EE:FF", -59, beacon.WithManufacturerData(raw))
	raw[0] = 0xFF
	suite.Equal([]byte{0x4c, 0x00, 0x02, 0x15}, b.ManufacturerData(), "option MUST copy the data")

	data, err := json.Marshal(b)
	suite.Require().NoError(err)
	var decoded map[string]interface{}
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.Equal("4c000215", decoded["manufacturer_data"])

	suite.Nil(suite.newBeacon("AA:BB:CC:DD:EE:FF", -59).ManufacturerData())
	suite.True(b.Equal(suite.newBeacon("AA:BB:CC:DD:EE:FF", -59)), "manufacturer data MUST NOT take part in equality")
}

func TestBeaconTestSuite(t *testing.T) {
	suite.Run(t, new(BeaconTestSuite))
}
