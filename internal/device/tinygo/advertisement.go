package tinygo

import (
	"encoding/binary"

	"github.com/srg/beacons/internal/device"
	"tinygo.org/x/bluetooth"
)

// ScanAdvertisement is a device.Advertisement built from a bluetooth.ScanResult
type ScanAdvertisement struct {
	addr    string
	name    string
	rssi    int
	raw     []byte
	mfrData []byte
}

// NewScanAdvertisement copies the fields beacon discovery needs out of r
func NewScanAdvertisement(r bluetooth.ScanResult) device.Advertisement {
	var (
		name string
		raw  []byte
		mfr  []bluetooth.ManufacturerDataElement
	)
	if r.AdvertisementPayload != nil {
		name = r.LocalName()
		raw = r.Bytes()
		mfr = r.ManufacturerData()
	}
	return newAdvertisement(r.Address.String(), name, r.RSSI, raw, mfr)
}

func newAdvertisement(addr, name string, rssi int16, raw []byte, mfr []bluetooth.ManufacturerDataElement) *ScanAdvertisement {
	adv := &ScanAdvertisement{
		addr: addr,
		name: name,
		rssi: int(rssi),
		raw:  append([]byte(nil), raw...),
	}
	// BlueZ reports manufacturer data keyed by company; re-encode the first
	// entry the way it appears on air: company ID (little-endian) then data.
	if len(mfr) > 0 {
		adv.mfrData = binary.LittleEndian.AppendUint16(nil, mfr[0].CompanyID)
		adv.mfrData = append(adv.mfrData, mfr[0].Data...)
	}
	return adv
}

func (a *ScanAdvertisement) Addr() string             { return a.addr }
func (a *ScanAdvertisement) LocalName() string        { return a.name }
func (a *ScanAdvertisement) RSSI() int                { return a.rssi }
func (a *ScanAdvertisement) ManufacturerData() []byte { return a.mfrData }

// TxPowerLevel is not reported by the BlueZ scan result
func (a *ScanAdvertisement) TxPowerLevel() int { return device.TxPowerUnknown }

// Connectable is not reported by the BlueZ scan result
func (a *ScanAdvertisement) Connectable() bool { return false }

// Payload returns the raw report when the host provides it, else the manufacturer data
func (a *ScanAdvertisement) Payload() []byte {
	if len(a.raw) > 0 {
		return a.raw
	}
	return a.mfrData
}
