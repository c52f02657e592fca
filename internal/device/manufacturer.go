package device

import (
	"encoding/binary"
	"fmt"

	"github.com/cornelk/hashmap"
)

const (
	// UnknownCompanyID makes ParseManufacturerData read the company ID from the
	// first 2 bytes of the data (little-endian).
	UnknownCompanyID uint16 = 0

	CompanyApple uint16 = 0x004C
)

// ManufacturerDataParser parses company-specific manufacturer data
type ManufacturerDataParser func([]byte) (interface{}, error)

// VendorInfo is implemented by parsed manufacturer frames
type VendorInfo interface {
	VendorID() uint16
	VendorName() string
}

// manufacturerDataParsers is read from every scan callback
var manufacturerDataParsers = func() *hashmap.Map[uint16, ManufacturerDataParser] {
	m := hashmap.New[uint16, ManufacturerDataParser]()
	m.Set(CompanyApple, parseIBeacon)
	return m
}()

// ParseManufacturerData parses manufacturer data for companyID. It returns
// (nil, nil) when no parser knows the company or the frame.
//
// Pass UnknownCompanyID when the company is not known in advance: the ID is
// then taken from rawData[0:2], which is how it appears on air. Not every
// vendor follows that convention.
func ParseManufacturerData(companyID uint16, rawData []byte) (interface{}, error) {
	id := companyID
	if id == UnknownCompanyID {
		var ok bool
		if id, ok = CompanyID(rawData); !ok {
			return nil, fmt.Errorf("manufacturer data too short: %d bytes", len(rawData))
		}
	}

	parser, exists := manufacturerDataParsers.Get(id)
	if !exists {
		return nil, nil
	}
	return parser(rawData)
}

// CompanyID returns the little-endian company identifier leading rawData
func CompanyID(rawData []byte) (uint16, bool) {
	if len(rawData) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(rawData[0:2]), true
}

// CompanyName returns the Bluetooth SIG name for companyID, or "" if unknown
func CompanyName(companyID uint16) string {
	return companyNames[companyID]
}

var companyNames = map[uint16]string{
	0x0002: "Intel",
	0x0006: "Microsoft",
	0x000A: "Qualcomm",
	0x000D: "Texas Instruments",
	0x000F: "Broadcom",
	0x004C: "Apple",
	0x0059: "Nordic Semiconductor",
	0x0075: "Samsung",
	0x00E0: "Google",
	0x0118: "Radius Networks",
	0x0499: "Ruuvi Innovations",
}

// Vendor identifies the company behind manufacturer data. Frame holds the
// parsed company frame, or nil when no parser recognised it.
type Vendor struct {
	CompanyID uint16
	Name      string
	Frame     interface{}
}

// DescribeManufacturer identifies the vendor of manufacturerData. It reports
// false when the data is too short to carry a company ID. Companies missing
// from the name table are named by their hex ID.
func DescribeManufacturer(manufacturerData []byte) (Vendor, bool) {
	id, ok := CompanyID(manufacturerData)
	if !ok {
		return Vendor{}, false
	}

	v := Vendor{CompanyID: id, Name: CompanyName(id)}
	if frame, err := ParseManufacturerData(id, manufacturerData); err == nil && frame != nil {
		v.Frame = frame
		if info, ok := frame.(VendorInfo); ok {
			v.CompanyID, v.Name = info.VendorID(), info.VendorName()
		}
	}
	if v.Name == "" {
		v.Name = fmt.Sprintf("0x%04X", v.CompanyID)
	}
	return v, true
}

// String describes the parsed frame when there is one, else the company
func (v Vendor) String() string {
	if s, ok := v.Frame.(fmt.Stringer); ok {
		return s.String()
	}
	return v.Name
}

// -----------------------------------------------------------------------------
// Apple iBeacon
// -----------------------------------------------------------------------------

const (
	iBeaconType   = 0x02
	iBeaconLength = 0x15
	iBeaconSize   = 25
)

// IBeacon is a parsed Apple iBeacon frame
//
// Format (25 bytes):
//   - Bytes 0-1:   Company ID (0x004C)
//   - Byte 2:      Type (0x02)
//   - Byte 3:      Remaining length (0x15)
//   - Bytes 4-19:  Proximity UUID
//   - Bytes 20-21: Major (big-endian)
//   - Bytes 22-23: Minor (big-endian)
//   - Byte 24:     Measured power at 1m (signed dBm)
type IBeacon struct {
	ProximityUUID string
	Major         uint16
	Minor         uint16
	MeasuredPower int
}

func (b *IBeacon) VendorID() uint16   { return CompanyApple }
func (b *IBeacon) VendorName() string { return CompanyName(CompanyApple) }

func (b *IBeacon) String() string {
	return fmt.Sprintf("iBeacon %s major=%d minor=%d", b.ProximityUUID, b.Major, b.Minor)
}

// parseIBeacon returns (nil, nil) for Apple frames that are not iBeacons
func parseIBeacon(data []byte) (interface{}, error) {
	if len(data) < 4 || data[2] != iBeaconType || data[3] != iBeaconLength {
		return nil, nil
	}
	if len(data) < iBeaconSize {
		return nil, fmt.Errorf("iBeacon frame too short: %d bytes, expected %d", len(data), iBeaconSize)
	}

	u := data[4:20]
	return &IBeacon{
		ProximityUUID: fmt.Sprintf("%X-%X-%X-%X-%X", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16]),
		Major:         binary.BigEndian.Uint16(data[20:22]),
		Minor:         binary.BigEndian.Uint16(data[22:24]),
		MeasuredPower: int(int8(data[24])),
	}, nil
}

// MeasuredPower returns the calibrated 1m RSSI carried by an iBeacon frame
func MeasuredPower(manufacturerData []byte) (int, bool) {
	frame, err := ParseManufacturerData(UnknownCompanyID, manufacturerData)
	if err != nil {
		return 0, false
	}
	ib, ok := frame.(*IBeacon)
	if !ok {
		return 0, false
	}
	return ib.MeasuredPower, true
}
