package testutils

import (
	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"

	"github.com/srg/beacons/internal/device"
)

// AdvertisementBuilder builds advertisements for backend and adapter tests.
//
//	adv := testutils.NewAdvertisementBuilder().
//	    WithAddress("AA:BB:CC:DD:EE:FF").
//	    WithRSSI(-59).
//	    Build()
type AdvertisementBuilder struct {
	address     string
	name        string
	rssi        int
	txPower     int
	connectable bool
	manufData   []byte
	payload     []byte
}

// NewAdvertisementBuilder creates a builder with an unknown tx power and rssi -50
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{
		rssi:    -50,
		txPower: device.TxPowerUnknown,
	}
}

func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.address = addr
	return b
}

func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.name = name
	return b
}

func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.rssi = rssi
	return b
}

func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.txPower = power
	return b
}

func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.connectable = c
	return b
}

func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.manufData = data
	return b
}

// WithPayload sets the raw report; without it Payload returns the manufacturer data
func (b *AdvertisementBuilder) WithPayload(data []byte) *AdvertisementBuilder {
	b.payload = data
	return b
}

// Build returns a device.Advertisement
func (b *AdvertisementBuilder) Build() *Advertisement {
	return &Advertisement{b: *b}
}

// BuildBLE returns a ble.Advertisement as reported by the go-ble HCI stack.
// Only the fields beacon discovery reads have expectations.
func (b *AdvertisementBuilder) BuildBLE() *MockBLEAdvertisement {
	adv := &MockBLEAdvertisement{}
	if b.address != "" {
		adv.On("Addr").Return(addr(b.address)).Maybe()
	} else {
		adv.On("Addr").Return(nil).Maybe()
	}
	adv.On("LocalName").Return(b.name).Maybe()
	adv.On("RSSI").Return(b.rssi).Maybe()
	adv.On("TxPowerLevel").Return(b.txPower).Maybe()
	adv.On("Connectable").Return(b.connectable).Maybe()
	adv.On("ManufacturerData").Return(b.manufData).Maybe()
	return adv
}

// Advertisement implements device.Advertisement
type Advertisement struct {
	b AdvertisementBuilder
}

func (a *Advertisement) Addr() string             { return a.b.address }
func (a *Advertisement) LocalName() string        { return a.b.name }
func (a *Advertisement) RSSI() int                { return a.b.rssi }
func (a *Advertisement) TxPowerLevel() int        { return a.b.txPower }
func (a *Advertisement) Connectable() bool        { return a.b.connectable }
func (a *Advertisement) ManufacturerData() []byte { return a.b.manufData }

func (a *Advertisement) Payload() []byte {
	if len(a.b.payload) > 0 {
		return a.b.payload
	}
	return a.b.manufData
}

var _ device.Advertisement = (*Advertisement)(nil)

// MockBLEAdvertisement is a testify mock of ble.Advertisement.
// Methods without an override panic through the nil embedded interface.
type MockBLEAdvertisement struct {
	mock.Mock
	ble.Advertisement
}

func (m *MockBLEAdvertisement) Addr() ble.Addr {
	args := m.Called()
	if a, ok := args.Get(0).(ble.Addr); ok {
		return a
	}
	return nil
}

func (m *MockBLEAdvertisement) LocalName() string        { return m.Called().String(0) }
func (m *MockBLEAdvertisement) RSSI() int                { return m.Called().Int(0) }
func (m *MockBLEAdvertisement) TxPowerLevel() int        { return m.Called().Int(0) }
func (m *MockBLEAdvertisement) Connectable() bool        { return m.Called().Bool(0) }
func (m *MockBLEAdvertisement) ManufacturerData() []byte { return bytesArg(m.Called(), 0) }

func bytesArg(args mock.Arguments, i int) []byte {
	if b, ok := args.Get(i).([]byte); ok {
		return b
	}
	return nil
}

// addr is a ble.Addr keeping the reported case
type addr string

func (a addr) String() string { return string(a) }
