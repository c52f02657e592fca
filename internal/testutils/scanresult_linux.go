package testutils

import (
	"tinygo.org/x/bluetooth"
)

// ScanResult builds a BlueZ scan result. It panics on a malformed MAC.
func ScanResult(mac, name string, rssi int16, raw []byte, mfr ...bluetooth.ManufacturerDataElement) bluetooth.ScanResult {
	parsed, err := bluetooth.ParseMAC(mac)
	if err != nil {
		panic(err)
	}
	return bluetooth.ScanResult{
		Address: bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: parsed}},
		RSSI:    rssi,
		AdvertisementPayload: &scanPayload{
			name: name,
			raw:  raw,
			mfr:  mfr,
		},
	}
}

// scanPayload implements the bluetooth.AdvertisementPayload fields read by the backend
type scanPayload struct {
	bluetooth.AdvertisementPayload
	name string
	raw  []byte
	mfr  []bluetooth.ManufacturerDataElement
}

func (p *scanPayload) LocalName() string { return p.name }
func (p *scanPayload) Bytes() []byte     { return p.raw }

func (p *scanPayload) ManufacturerData() []bluetooth.ManufacturerDataElement {
	return p.mfr
}
