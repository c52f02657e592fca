// Package device defines the host BLE primitives beacon discovery is built on:
// the advertisement seen by a scan, the scanning device that delivers them, and
// the sentinel errors host backends normalize their failures to.
//
// Backends live in sub-packages:
//   - go-ble: raw HCI sockets through github.com/go-ble/ble (legacy scanning)
//   - tinygo: BlueZ over D-Bus through tinygo.org/x/bluetooth (modern scanning)
package device
