package scanner

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/srg/beacons/beacon"
)

// Host is the platform handle the facade is built on. It is owned by the
// caller and passed in explicitly.
type Host interface {
	// Capability reports the scanning capability resolved for this host
	Capability() Capability

	BluetoothEnabled() (bool, error)

	// LocationEnabled reports whether location services are available, on
	// hosts that gate BLE scanning on them
	LocationEnabled() (bool, error)

	// RequestBluetoothAccess triggers the host flow enabling Bluetooth
	RequestBluetoothAccess(ctx context.Context) error

	// RequestLocationAccess triggers the host flow enabling location services
	RequestLocationAccess(ctx context.Context) error
}

// ReactiveBeacons exposes host capability checks and BLE beacon streams.
//
// At most one scan registration is active at a time: subscribing to a second
// stream while another subscription is live fails with beacon.ErrScanInProgress.
type ReactiveBeacons struct {
	host       Host
	capability Capability

	logger                  *logrus.Logger
	strategyOptions         Options
	strategyFor             func(Capability) (Strategy, error)
	surfacePermissionErrors bool

	active atomic.Bool
}

// Option configures ReactiveBeacons
type Option func(*ReactiveBeacons)

// WithLogger sets the logger used by the facade and the built-in strategies
func WithLogger(logger *logrus.Logger) Option {
	return func(r *ReactiveBeacons) { r.logger = logger }
}

// WithStrategyOptions configures the built-in strategies selected by Observe
func WithStrategyOptions(opts Options) Option {
	return func(r *ReactiveBeacons) { r.strategyOptions = opts }
}

// WithStrategyFactory replaces the built-in strategy selection of Observe
func WithStrategyFactory(factory func(Capability) (Strategy, error)) Option {
	return func(r *ReactiveBeacons) { r.strategyFor = factory }
}

// WithSurfacePermissionErrors makes Observe fail with beacon.ErrPermissionDenied
// instead of completing empty when the host refuses to scan.
func WithSurfacePermissionErrors(surface bool) Option {
	return func(r *ReactiveBeacons) { r.surfacePermissionErrors = surface }
}

// New creates the facade. A nil host is treated as a host without BLE.
func New(host Host, opts ...Option) *ReactiveBeacons {
	r := &ReactiveBeacons{host: host}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logrus.New()
	}
	if r.strategyOptions.Logger == nil {
		r.strategyOptions.Logger = r.logger
	}
	if r.strategyFor == nil {
		r.strategyFor = func(c Capability) (Strategy, error) {
			return StrategyFor(c, r.strategyOptions)
		}
	}
	if host != nil {
		r.capability = host.Capability()
	}

	r.logger.WithField("capability", r.capability.String()).Debug("Resolved BLE capability")
	return r
}

// Capability returns the capability resolved at construction
func (r *ReactiveBeacons) Capability() Capability {
	return r.capability
}

// IsSupported reports whether the host can scan for BLE beacons at all
func (r *ReactiveBeacons) IsSupported() bool {
	return r.capability != CapabilityNone
}

// IsBluetoothOn reports the adapter state
func (r *ReactiveBeacons) IsBluetoothOn() (bool, error) {
	if err := r.checkSupported(); err != nil {
		return false, err
	}
	on, err := r.host.BluetoothEnabled()
	return on, classifyHostError(err)
}

// IsLocationServiceOn reports whether location services are on
func (r *ReactiveBeacons) IsLocationServiceOn() (bool, error) {
	if err := r.checkSupported(); err != nil {
		return false, err
	}
	on, err := r.host.LocationEnabled()
	return on, classifyHostError(err)
}

// RequestBluetoothAccess asks the host to enable Bluetooth
func (r *ReactiveBeacons) RequestBluetoothAccess(ctx context.Context) error {
	if err := r.checkSupported(); err != nil {
		return err
	}
	return classifyHostError(r.host.RequestBluetoothAccess(ctx))
}

// RequestLocationAccess asks the host to enable location services
func (r *ReactiveBeacons) RequestLocationAccess(ctx context.Context) error {
	if err := r.checkSupported(); err != nil {
		return err
	}
	return classifyHostError(r.host.RequestLocationAccess(ctx))
}

// Observe returns a stream of beacons using the strategy matching the host
// capability. It is empty when BLE is unsupported. When the host denies
// permission to scan, the stream completes without error unless
// WithSurfacePermissionErrors was set.
func (r *ReactiveBeacons) Observe() *Stream {
	if !r.IsSupported() {
		return Empty()
	}

	strategy, err := r.strategyFor(r.capability)
	if err != nil {
		return Fail(err)
	}

	stream := r.exclusive(strategy.Observe())
	if r.surfacePermissionErrors {
		return stream
	}
	return r.swallowPermissionDenied(stream)
}

// ObserveWith returns a stream of beacons produced by strategy, for custom
// discovery policies and test doubles. It is empty when BLE is unsupported.
func (r *ReactiveBeacons) ObserveWith(strategy Strategy) (*Stream, error) {
	if !r.IsSupported() {
		return Empty(), nil
	}
	if strategy == nil {
		return nil, beacon.NewError(beacon.InvalidArgument, "scan strategy cannot be nil")
	}
	return r.exclusive(strategy.Observe()), nil
}

func (r *ReactiveBeacons) checkSupported() error {
	if !r.IsSupported() {
		return beacon.NewError(beacon.UnsupportedPlatform, "BLE not supported")
	}
	return nil
}

// exclusive refuses to start a scan while another one is registered
func (r *ReactiveBeacons) exclusive(stream *Stream) *Stream {
	return stream.Lift(func(ctx context.Context, start StartFunc) (Scan, error) {
		if !r.active.CompareAndSwap(false, true) {
			return nil, beacon.NewError(beacon.ScanInProgress, "another beacon scan is active")
		}

		scan, err := start(ctx)
		if err != nil {
			r.active.Store(false)
			return nil, err
		}
		return &releasingScan{Scan: scan, release: func() { r.active.Store(false) }}, nil
	})
}

func (r *ReactiveBeacons) swallowPermissionDenied(stream *Stream) *Stream {
	swallow := func(err error) bool {
		if !errors.Is(err, beacon.ErrPermissionDenied) {
			return false
		}
		r.logger.WithError(err).Warn("BLE scan permission denied, completing stream empty")
		return true
	}

	return stream.Lift(func(ctx context.Context, start StartFunc) (Scan, error) {
		scan, err := start(ctx)
		if err != nil {
			if swallow(err) {
				return emptyScan{}, nil
			}
			return nil, err
		}
		return &swallowingScan{Scan: scan, swallow: swallow}, nil
	})
}

type releasingScan struct {
	Scan
	once    sync.Once
	release func()
}

func (s *releasingScan) Stop() error {
	var err error
	s.once.Do(func() {
		err = s.Scan.Stop()
		s.release()
	})
	return err
}

type swallowingScan struct {
	Scan
	swallow func(error) bool
}

func (s *swallowingScan) Next(ctx context.Context) (*beacon.Beacon, error) {
	b, err := s.Scan.Next(ctx)
	if err != nil && s.swallow(err) {
		return nil, io.EOF
	}
	return b, err
}
