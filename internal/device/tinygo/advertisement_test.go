package tinygo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"tinygo.org/x/bluetooth"

	"github.com/srg/beacons/internal/device"
)

func TestNewAdvertisement(t *testing.T) {
	t.Run("re-encodes the first manufacturer entry", func(t *testing.T) {
		adv := newAdvertisement("AA:BB:CC:DD:EE:FF", "tag", -70, nil, []bluetooth.ManufacturerDataElement{
			{CompanyID: 0x004c, Data: []byte{0x02, 0x15}},
			{CompanyID: 0x0059, Data: []byte{0x01}},
		})

		assert.Equal(t, "AA:BB:CC:DD:EE:FF", adv.Addr())
		assert.Equal(t, "tag", adv.LocalName())
		assert.Equal(t, -70, adv.RSSI())
		assert.Equal(t, []byte{0x4c, 0x00, 0x02, 0x15}, adv.ManufacturerData())
		assert.Equal(t, adv.ManufacturerData(), adv.Payload())
		assert.Equal(t, device.TxPowerUnknown, adv.TxPowerLevel())
		assert.False(t, adv.Connectable())
	})

	t.Run("prefers the raw report as payload", func(t *testing.T) {
		raw := []byte{0x02, 0x01, 0x06}
		adv := newAdvertisement("AA:BB:CC:DD:EE:FF", "", -70, raw, nil)

		assert.Equal(t, raw, adv.Payload())
		assert.Nil(t, adv.ManufacturerData())

		raw[0] = 0xff
		assert.Equal(t, byte(0x02), adv.Payload()[0], "the raw report MUST be copied")
	})
}

func TestIsNotScanningError(t *testing.T) {
	assert.True(t, isNotScanningError(errors.New("bluetooth: there is no scan in progress")))
	assert.True(t, isNotScanningError(errors.New("org.bluez.Error.Failed: No discovery started")))
	assert.True(t, isNotScanningError(errors.New("bluetooth: not scanning")))
	assert.False(t, isNotScanningError(errors.New("org.bluez.Error.NotReady")))
	assert.False(t, isNotScanningError(errors.New("org.bluez.Error.Failed: Operation failed")))
}
