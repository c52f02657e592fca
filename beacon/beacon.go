// Package beacon holds the discovery record produced for every BLE scan
// callback, the hardware address and proximity value types, and pure filter
// predicates over records.
package beacon

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DefaultTxPower is the reference RSSI at one meter (dBm) used when the
// advertisement does not carry its own. Matches Estimote and Kontakt.io beacons.
const DefaultTxPower = -59

// Beacon is an immutable snapshot of one scan observation
type Beacon struct {
	address     HardwareAddress
	name        string
	named       bool
	rssi        int
	payload     []byte
	mfrData     []byte
	txPower     int
	connectable bool
	seenAt      time.Time
}

// Option configures optional Beacon fields
type Option func(*Beacon)

// WithName sets the advertised local name. An empty name leaves the beacon unnamed.
func WithName(name string) Option {
	return func(b *Beacon) {
		if name != "" {
			b.name = name
			b.named = true
		}
	}
}

// WithTxPower overrides DefaultTxPower
func WithTxPower(dBm int) Option {
	return func(b *Beacon) { b.txPower = dBm }
}

// WithConnectable marks the advertisement as connectable
func WithConnectable(c bool) Option {
	return func(b *Beacon) { b.connectable = c }
}

// WithManufacturerData attaches the advertised manufacturer data, company ID
// first. The data is copied.
func WithManufacturerData(data []byte) Option {
	return func(b *Beacon) { b.mfrData = append([]byte(nil), data...) }
}

// WithSeenAt sets the observation time (defaults to time.Now)
func WithSeenAt(t time.Time) Option {
	return func(b *Beacon) { b.seenAt = t }
}

// New validates address and builds a Beacon. The payload is copied.
func New(address string, rssi int, payload []byte, opts ...Option) (*Beacon, error) {
	addr, err := ParseHardwareAddress(address)
	if err != nil {
		return nil, err
	}

	b := &Beacon{
		address: addr,
		rssi:    rssi,
		payload: append([]byte(nil), payload...),
		txPower: DefaultTxPower,
		seenAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Beacon) Address() HardwareAddress { return b.address }
func (b *Beacon) RSSI() int                { return b.rssi }
func (b *Beacon) TxPower() int             { return b.txPower }
func (b *Beacon) Connectable() bool        { return b.connectable }
func (b *Beacon) SeenAt() time.Time        { return b.seenAt }

// Name returns the advertised local name and whether one was present
func (b *Beacon) Name() (string, bool) {
	return b.name, b.named
}

// Payload returns a copy of the raw advertisement payload
func (b *Beacon) Payload() []byte {
	return append([]byte(nil), b.payload...)
}

// ManufacturerData returns a copy of the advertised manufacturer data, or nil
func (b *Beacon) ManufacturerData() []byte {
	if len(b.mfrData) == 0 {
		return nil
	}
	return append([]byte(nil), b.mfrData...)
}

// Distance estimates the distance to the beacon in meters using the
// free-space path loss model: 10^((txPower - rssi) / 20).
func (b *Beacon) Distance() float64 {
	return math.Pow(10, float64(b.txPower-b.rssi)/(10*2))
}

// Proximity returns the bucket containing Distance
func (b *Beacon) Proximity() Proximity {
	return ProximityOf(b.Distance())
}

// Equal reports whether both records carry the same address, RSSI and payload.
// Name, tx power, manufacturer data and timestamps do not take part.
func (b *Beacon) Equal(other *Beacon) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.address == other.address &&
		b.rssi == other.rssi &&
		bytes.Equal(b.payload, other.payload)
}

func (b *Beacon) String() string {
	return fmt.Sprintf("Beacon{address=%s, rssi=%d}", b.address, b.rssi)
}

type beaconJSON struct {
	Address     string    `json:"address"`
	Name        *string   `json:"name"`
	RSSI        int       `json:"rssi"`
	TxPower     int       `json:"tx_power"`
	Distance    float64   `json:"distance"`
	Proximity   Proximity `json:"proximity"`
	Connectable bool      `json:"connectable"`
	Payload     string    `json:"payload"`
	MfrData     string    `json:"manufacturer_data,omitempty"`
}

// MarshalJSON encodes the beacon together with its derived distance and proximity
func (b *Beacon) MarshalJSON() ([]byte, error) {
	out := beaconJSON{
		Address:     b.address.String(),
		RSSI:        b.rssi,
		TxPower:     b.txPower,
		Distance:    b.Distance(),
		Proximity:   b.Proximity(),
		Connectable: b.connectable,
		Payload:     hex.EncodeToString(b.payload),
		MfrData:     hex.EncodeToString(b.mfrData),
	}
	if b.named {
		name := b.name
		out.Name = &name
	}
	return json.Marshal(out)
}
