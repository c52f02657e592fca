package device

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iBeaconFrame(t *testing.T) []byte {
	t.Helper()
	data, err := hex.DecodeString("4c000215" + "f7826da64fa24e988024bc5b71e0893e" + "0001" + "00ff" + "c5")
	require.NoError(t, err)
	return data
}

func TestParseManufacturerData(t *testing.T) {
	t.Run("parses an iBeacon frame", func(t *testing.T) {
		frame, err := ParseManufacturerData(UnknownCompanyID, iBeaconFrame(t))
		require.NoError(t, err)

		ib, ok := frame.(*IBeacon)
		require.True(t, ok, "frame MUST be an iBeacon")
		assert.Equal(t, "F7826DA6-4FA2-4E98-8024-BC5B71E0893E", ib.ProximityUUID)
		assert.Equal(t, uint16(1), ib.Major)
		assert.Equal(t, uint16(255), ib.Minor)
		assert.Equal(t, -59, ib.MeasuredPower)
		assert.Equal(t, CompanyApple, ib.VendorID())
		assert.Equal(t, "Apple", ib.VendorName())
	})

	t.Run("other Apple frames are not parsed", func(t *testing.T) {
		frame, err := ParseManufacturerData(CompanyApple, []byte{0x4c, 0x00, 0x10, 0x05, 0x01})
		assert.NoError(t, err)
		assert.Nil(t, frame)
	})

	t.Run("truncated iBeacon is an error", func(t *testing.T) {
		_, err := ParseManufacturerData(UnknownCompanyID, iBeaconFrame(t)[:20])
		assert.Error(t, err)
	})

	t.Run("unknown company is not an error", func(t *testing.T) {
		frame, err := ParseManufacturerData(UnknownCompanyID, []byte{0x59, 0x00, 0x01})
		assert.NoError(t, err)
		assert.Nil(t, frame)
	})

	t.Run("missing company id is an error", func(t *testing.T) {
		_, err := ParseManufacturerData(UnknownCompanyID, []byte{0x4c})
		assert.Error(t, err)
	})
}

func TestMeasuredPower(t *testing.T) {
	power, ok := MeasuredPower(iBeaconFrame(t))
	assert.True(t, ok)
	assert.Equal(t, -59, power)

	_, ok = MeasuredPower([]byte{0x59, 0x00, 0x01})
	assert.False(t, ok)

	_, ok = MeasuredPower(nil)
	assert.False(t, ok)
}

func TestCompanyName(t *testing.T) {
	assert.Equal(t, "Nordic Semiconductor", CompanyName(0x0059))
	assert.Empty(t, CompanyName(0xFFFF))

	id, ok := CompanyID([]byte{0x4c, 0x00})
	assert.True(t, ok)
	assert.Equal(t, CompanyApple, id)
}

func TestDescribeManufacturer(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Vendor
		str      string
	}{
		{
			name:     "iBeacon frame",
			data:     iBeaconFrame(t),
			expected: Vendor{CompanyID: CompanyApple, Name: "Apple", Frame: &IBeacon{ProximityUUID: "F7826DA6-4FA2-4E98-8024-BC5B71E0893E", Major: 1, Minor: 255, MeasuredPower: -59}},
			str:      "iBeacon F7826DA6-4FA2-4E98-8024-BC5B71E0893E major=1 minor=255",
		},
		{
			name:     "known company without parser",
			data:     []byte{0x99, 0x04, 0x05},
			expected: Vendor{CompanyID: 0x0499, Name: "Ruuvi Innovations"},
			str:      "Ruuvi Innovations",
		},
		{
			name:     "unknown company",
			data:     []byte{0x34, 0x12},
			expected: Vendor{CompanyID: 0x1234, Name: "0x1234"},
			str:      "0x1234",
		},
		{
			name:     "truncated iBeacon keeps the company",
			data:     iBeaconFrame(t)[:10],
			expected: Vendor{CompanyID: CompanyApple, Name: "Apple"},
			str:      "Apple",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := DescribeManufacturer(tt.data)
			require.True(t, ok)
			assert.Equal(t, tt.expected, v)
			assert.Equal(t, tt.str, v.String())
		})
	}

	_, ok := DescribeManufacturer([]byte{0x4c})
	assert.False(t, ok, "data without a company ID MUST NOT be described")
}
