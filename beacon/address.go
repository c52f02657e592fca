package beacon

import "regexp"

var hardwareAddressPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// HardwareAddress is a validated 6-octet hardware (MAC) address.
//
// The original string is kept as-is: "aa:bb:cc:dd:ee:ff" and "AA:BB:CC:DD:EE:FF"
// are distinct values.
type HardwareAddress struct {
	address string
}

// ParseHardwareAddress validates s and wraps it into a HardwareAddress.
// Colon and hyphen separators are accepted, hex digits are case-insensitive.
func ParseHardwareAddress(s string) (HardwareAddress, error) {
	if !hardwareAddressPattern.MatchString(s) {
		return HardwareAddress{}, NewError(InvalidArgument, "hardware address %q is invalid", s)
	}
	return HardwareAddress{address: s}, nil
}

// MustParseHardwareAddress is like ParseHardwareAddress but panics on invalid input.
func MustParseHardwareAddress(s string) HardwareAddress {
	addr, err := ParseHardwareAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String returns the address exactly as it was parsed
func (a HardwareAddress) String() string {
	return a.address
}

// IsZero reports whether a was never parsed
func (a HardwareAddress) IsZero() bool {
	return a.address == ""
}
