package testutils

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/mock"
	"tinygo.org/x/bluetooth"

	goble "github.com/srg/beacons/internal/device/go-ble"
	"github.com/srg/beacons/internal/device/tinygo"
	"github.com/srg/beacons/internal/host"
)

// MockHCIDevice is a goble.Device that replays Advertisements on Scan.
//
// Scan returns the error configured with On("Scan", allowDup) right after the
// replay when it is non-nil, otherwise it blocks until ctx is done.
// Replayed, when set, is closed once every advertisement was handed over.
type MockHCIDevice struct {
	mock.Mock
	Advertisements []ble.Advertisement
	Replayed       chan struct{}
}

func (m *MockHCIDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(allowDup)
	for _, adv := range m.Advertisements {
		h(adv)
	}
	if m.Replayed != nil {
		close(m.Replayed)
	}
	if err := args.Error(0); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockHCIDevice) Stop() error {
	return m.Called().Error(0)
}

var _ goble.Device = (*MockHCIDevice)(nil)

// MockBlueZAdapter is a tinygo.Adapter that replays Results on Scan.
//
// Scan returns the error configured with On("Scan") right after the replay
// when it is non-nil, otherwise it blocks until StopScan.
type MockBlueZAdapter struct {
	mock.Mock
	Results []bluetooth.ScanResult

	once    sync.Once
	stopped chan struct{}
}

func (m *MockBlueZAdapter) stopCh() chan struct{} {
	m.once.Do(func() { m.stopped = make(chan struct{}) })
	return m.stopped
}

func (m *MockBlueZAdapter) Enable() error {
	return m.Called().Error(0)
}

func (m *MockBlueZAdapter) Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	args := m.Called()
	for _, r := range m.Results {
		callback(nil, r)
	}
	if err := args.Error(0); err != nil {
		return err
	}
	<-m.stopCh()
	return nil
}

func (m *MockBlueZAdapter) StopScan() error {
	err := m.Called().Error(0)
	if err == nil {
		stop := m.stopCh()
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
	return err
}

var _ tinygo.Adapter = (*MockBlueZAdapter)(nil)

// MockBus is a host.Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) GetProperty(_ context.Context, path dbus.ObjectPath, property string) (dbus.Variant, error) {
	args := m.Called(path, property)
	v, _ := args.Get(0).(dbus.Variant)
	return v, args.Error(1)
}

func (m *MockBus) SetProperty(_ context.Context, path dbus.ObjectPath, property string, value interface{}) error {
	return m.Called(path, property, value).Error(0)
}

func (m *MockBus) Close() error {
	return m.Called().Error(0)
}

var _ host.Bus = (*MockBus)(nil)
