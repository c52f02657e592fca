package scanner

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/srg/beacons/beacon"
)

// Scan is one live scan registration.
//
// Next blocks until a record is available; it returns io.EOF once the scan
// has completed or been stopped. Stop releases the registration and must
// unblock a pending Next. Subscriptions never call Next concurrently and call
// Stop exactly once.
type Scan interface {
	Next(ctx context.Context) (*beacon.Beacon, error)
	Stop() error
}

// StartFunc registers a new scan. It is called once per subscription.
type StartFunc func(ctx context.Context) (Scan, error)

// Stream is a cold sequence of beacons: nothing is scanned until Subscribe,
// and every Subscribe starts a fresh scan.
type Stream struct {
	start StartFunc
}

// NewStream creates a stream whose subscriptions run start
func NewStream(start StartFunc) *Stream {
	return &Stream{start: start}
}

// Empty returns a stream that completes immediately
func Empty() *Stream {
	return NewStream(func(context.Context) (Scan, error) {
		return emptyScan{}, nil
	})
}

// Fail returns a stream whose subscriptions fail with err
func Fail(err error) *Stream {
	return NewStream(func(context.Context) (Scan, error) {
		return nil, err
	})
}

// Just returns a finite stream emitting beacons in order, then completing
func Just(beacons ...*beacon.Beacon) *Stream {
	return NewStream(func(context.Context) (Scan, error) {
		return &sliceScan{items: beacons}, nil
	})
}

// Distinct drops a record equal (beacon.Beacon.Equal) to the one emitted just before it
func (s *Stream) Distinct() *Stream {
	return s.Map(func(inner Scan) Scan {
		return &distinctScan{Scan: inner}
	})
}

// Filter passes records matching every predicate
func (s *Stream) Filter(preds ...beacon.Predicate) *Stream {
	match := beacon.All(preds...)
	return s.Map(func(inner Scan) Scan {
		return &filterScan{Scan: inner, match: match}
	})
}

// Map decorates every scan started by the stream
func (s *Stream) Map(decorate func(Scan) Scan) *Stream {
	return s.Lift(func(ctx context.Context, start StartFunc) (Scan, error) {
		inner, err := start(ctx)
		if err != nil {
			return nil, err
		}
		return decorate(inner), nil
	})
}

// Lift wraps the start of every subscription, allowing decorators to
// intercept start errors or refuse to start.
func (s *Stream) Lift(fn func(ctx context.Context, start StartFunc) (Scan, error)) *Stream {
	start := s.start
	return NewStream(func(ctx context.Context) (Scan, error) {
		return fn(ctx, start)
	})
}

// Subscribe starts the scan. A start failure is reported by the subscription's
// Next. The subscription is cancelled when ctx is done.
func (s *Stream) Subscribe(ctx context.Context) *Subscription {
	sub := newSubscription()

	scan, err := s.start(ctx)
	if err != nil {
		sub.terminate(err)
		return sub
	}

	sub.scan = scan
	stopWatch := context.AfterFunc(ctx, sub.Cancel)
	sub.errMu.Lock()
	sub.stopWatch = stopWatch
	sub.errMu.Unlock()
	return sub
}

// Subscription is a consumer's handle on a started stream
type Subscription struct {
	nextMu sync.Mutex // serializes Next
	scan   Scan

	errMu     sync.Mutex
	err       error
	stopWatch func() bool

	// life is cancelled on termination; it unblocks a pending Next
	life context.Context
	end  context.CancelFunc
	once sync.Once
}

func newSubscription() *Subscription {
	life, end := context.WithCancel(context.Background())
	return &Subscription{life: life, end: end}
}

// Next blocks until the next record. It returns io.EOF once the stream has
// completed or the subscription was cancelled, the stream error once it has
// failed (and on every later call), or ctx.Err() if ctx ends first.
func (s *Subscription) Next(ctx context.Context) (*beacon.Beacon, error) {
	s.nextMu.Lock()
	defer s.nextMu.Unlock()

	if err := s.terminal(); err != nil {
		return nil, err
	}

	nextCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.life, cancel)
	defer stop()

	b, err := s.scan.Next(nextCtx)
	if err == nil {
		return b, nil
	}

	if s.life.Err() != nil {
		return nil, s.terminal()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.terminate(err)
	return nil, s.terminal()
}

// Each calls fn for every record until the stream ends, fn fails or ctx is done.
// It returns nil on completion or cancellation.
func (s *Subscription) Each(ctx context.Context, fn func(*beacon.Beacon) error) error {
	for {
		b, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
}

// Cancel stops the scan. It is safe to call more than once and from any goroutine.
func (s *Subscription) Cancel() {
	s.terminate(io.EOF)
}

// Done is closed once the subscription has completed, failed or been cancelled
func (s *Subscription) Done() <-chan struct{} {
	return s.life.Done()
}

// Err returns the error the stream failed with, or nil
func (s *Subscription) Err() error {
	if err := s.terminal(); !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Subscription) terminal() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// terminate records the first terminal error and stops the scan exactly once
func (s *Subscription) terminate(err error) {
	s.once.Do(func() {
		s.errMu.Lock()
		s.err = err
		stopWatch := s.stopWatch
		s.errMu.Unlock()
		s.end()

		if stopWatch != nil {
			stopWatch()
		}
		if s.scan != nil {
			_ = s.scan.Stop()
		}
	})
}

type emptyScan struct{}

func (emptyScan) Next(context.Context) (*beacon.Beacon, error) { return nil, io.EOF }
func (emptyScan) Stop() error                                  { return nil }

type sliceScan struct {
	items []*beacon.Beacon
	pos   int
}

func (s *sliceScan) Next(context.Context) (*beacon.Beacon, error) {
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	b := s.items[s.pos]
	s.pos++
	return b, nil
}

func (s *sliceScan) Stop() error { return nil }

type distinctScan struct {
	Scan
	last *beacon.Beacon
}

func (s *distinctScan) Next(ctx context.Context) (*beacon.Beacon, error) {
	for {
		b, err := s.Scan.Next(ctx)
		if err != nil {
			return nil, err
		}
		if s.last != nil && s.last.Equal(b) {
			continue
		}
		s.last = b
		return b, nil
	}
}

type filterScan struct {
	Scan
	match beacon.Predicate
}

func (s *filterScan) Next(ctx context.Context) (*beacon.Beacon, error) {
	for {
		b, err := s.Scan.Next(ctx)
		if err != nil {
			return nil, err
		}
		if s.match(b) {
			return b, nil
		}
	}
}
