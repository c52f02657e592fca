//go:build !linux

package host

// Hosts outside Linux report opaque peripheral identifiers instead of
// hardware addresses.
const platformSupported = false
