package host

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService     = "org.bluez"
	adapterInterface = "org.bluez.Adapter1"
	propertiesGet    = "org.freedesktop.DBus.Properties.Get"
	propertiesSet    = "org.freedesktop.DBus.Properties.Set"
)

// Bus reads and writes BlueZ adapter properties
type Bus interface {
	GetProperty(ctx context.Context, path dbus.ObjectPath, property string) (dbus.Variant, error)
	SetProperty(ctx context.Context, path dbus.ObjectPath, property string, value interface{}) error
	Close() error
}

// ConnectBus opens the bus the host talks to BlueZ over; replaced in tests
var ConnectBus = func() (Bus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &systemBus{conn: conn}, nil
}

type systemBus struct {
	conn *dbus.Conn
}

func (b *systemBus) GetProperty(ctx context.Context, path dbus.ObjectPath, property string) (dbus.Variant, error) {
	var v dbus.Variant
	err := b.conn.Object(bluezService, path).
		CallWithContext(ctx, propertiesGet, 0, adapterInterface, property).
		Store(&v)
	return v, err
}

func (b *systemBus) SetProperty(ctx context.Context, path dbus.ObjectPath, property string, value interface{}) error {
	return b.conn.Object(bluezService, path).
		CallWithContext(ctx, propertiesSet, 0, adapterInterface, property, dbus.MakeVariant(value)).
		Err
}

func (b *systemBus) Close() error {
	return b.conn.Close()
}

// adapterPath returns the BlueZ object path of adapter id (hci0, hci1...)
func adapterPath(id string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + id)
}
