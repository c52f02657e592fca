package scanner

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/ringchan"
)

// callbackAdapter turns the host's push-style scan callback into a pull-style
// Scan. Deliveries wait in a bounded ring: with capacity 1 it is a single
// in-flight slot where an unconsumed record is overwritten by the newer one,
// larger capacities drop the oldest record once full.
//
// A failure is sticky: it is returned after any record that was already
// pending, and on every later Next.
type callbackAdapter struct {
	ring   *ringchan.RingChannel[*beacon.Beacon]
	logger *logrus.Logger

	advertisedTxPower bool

	failOnce sync.Once
	failed   chan struct{}
	failure  error

	closeOnce sync.Once
	closed    chan struct{}
}

func newCallbackAdapter(capacity int, advertisedTxPower bool, logger *logrus.Logger) *callbackAdapter {
	return &callbackAdapter{
		ring:              ringchan.New[*beacon.Beacon](capacity),
		logger:            logger,
		advertisedTxPower: advertisedTxPower,
		failed:            make(chan struct{}),
		closed:            make(chan struct{}),
	}
}

// OnAdvertisement is the host callback; it wraps adv into a Beacon and fills the ring
func (a *callbackAdapter) OnAdvertisement(adv device.Advertisement) {
	opts := []beacon.Option{
		beacon.WithName(adv.LocalName()),
		beacon.WithConnectable(adv.Connectable()),
		beacon.WithManufacturerData(adv.ManufacturerData()),
	}
	if a.advertisedTxPower {
		if tx, ok := advertisedTxPower(adv); ok {
			opts = append(opts, beacon.WithTxPower(tx))
		}
	}

	b, err := beacon.New(adv.Addr(), adv.RSSI(), adv.Payload(), opts...)
	if err != nil {
		a.Fail(err)
		return
	}

	if a.ring.Send(b) {
		a.logger.WithField("address", b.Address().String()).Debug("Overwrote undelivered beacon")
	}
}

// advertisedTxPower prefers the calibrated 1m power of an iBeacon frame over
// the advertised transmit level
func advertisedTxPower(adv device.Advertisement) (int, bool) {
	if power, ok := device.MeasuredPower(adv.ManufacturerData()); ok {
		return power, true
	}
	if tx := adv.TxPowerLevel(); tx != device.TxPowerUnknown {
		return tx, true
	}
	return 0, false
}

// Fail ends the scan with err; only the first failure is kept
func (a *callbackAdapter) Fail(err error) {
	a.failOnce.Do(func() {
		a.failure = err
		close(a.failed)
	})
}

// Close makes Next return io.EOF
func (a *callbackAdapter) Close() {
	a.closeOnce.Do(func() { close(a.closed) })
}

// Next blocks until a record, a failure, Close or the end of ctx
func (a *callbackAdapter) Next(ctx context.Context) (*beacon.Beacon, error) {
	select {
	case b := <-a.ring.C():
		a.ring.MarkProcessed()
		return b, nil
	case <-a.failed:
		if b, ok := a.ring.TryReceive(); ok {
			return b, nil
		}
		return nil, a.failure
	case <-a.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Metrics returns the ring counters
func (a *callbackAdapter) Metrics() ringchan.Metrics {
	return a.ring.GetMetrics()
}
