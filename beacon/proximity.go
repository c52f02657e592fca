package beacon

import (
	"fmt"
	"math"
	"strings"
)

// Proximity is a coarse distance bucket
type Proximity int

const (
	Immediate Proximity = iota // [0, 1) m
	Near                       // [1, 3] m
	Far                        // (3, +Inf) m
)

var proximityNames = map[Proximity]string{
	Immediate: "IMMEDIATE",
	Near:      "NEAR",
	Far:       "FAR",
}

// MinDistance returns the inclusive lower bound of the bucket in meters
func (p Proximity) MinDistance() float64 {
	switch p {
	case Near:
		return 1
	case Far:
		return 3
	default:
		return 0
	}
}

// MaxDistance returns the upper bound of the bucket in meters; Far is unbounded
func (p Proximity) MaxDistance() float64 {
	switch p {
	case Immediate:
		return 1
	case Near:
		return 3
	default:
		return math.Inf(1)
	}
}

func (p Proximity) String() string {
	if name, ok := proximityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Proximity(%d)", int(p))
}

// MarshalText encodes the proximity by name
func (p Proximity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ProximityOf classifies distance. Immediate is checked first, then Near
// (both bounds inclusive), everything else is Far.
func ProximityOf(distance float64) Proximity {
	if distance < Immediate.MaxDistance() {
		return Immediate
	}
	if distance >= Near.MinDistance() && distance <= Near.MaxDistance() {
		return Near
	}
	return Far
}

// ParseProximity parses a bucket name case-insensitively
func ParseProximity(s string) (Proximity, error) {
	for p, name := range proximityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return p, nil
		}
	}
	return 0, NewError(InvalidArgument, "unknown proximity %q (must be immediate, near or far)", s)
}
