package testutils

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/scanner"
)

// ScriptedStrategy is a scanner.Strategy replaying Beacons on every subscription.
//
// After the replay a scan fails with Err when set, completes when Finite is
// set, and otherwise blocks until stopped, like a host scan.
type ScriptedStrategy struct {
	Beacons  []*beacon.Beacon
	Err      error
	StartErr error
	Finite   bool

	starts atomic.Int32
	stops  atomic.Int32
}

// NewScriptedStrategy creates an infinite strategy emitting beacons
func NewScriptedStrategy(beacons ...*beacon.Beacon) *ScriptedStrategy {
	return &ScriptedStrategy{Beacons: beacons}
}

func (s *ScriptedStrategy) Observe() *scanner.Stream {
	return scanner.NewStream(s.start).Distinct()
}

// Starts returns how many scans were started
func (s *ScriptedStrategy) Starts() int { return int(s.starts.Load()) }

// Stops returns how many times Stop was called across all scans
func (s *ScriptedStrategy) Stops() int { return int(s.stops.Load()) }

func (s *ScriptedStrategy) start(context.Context) (scanner.Scan, error) {
	if s.StartErr != nil {
		return nil, s.StartErr
	}
	s.starts.Add(1)
	return &scriptedScan{
		strategy: s,
		items:    s.Beacons,
		stopped:  make(chan struct{}),
	}, nil
}

type scriptedScan struct {
	strategy *ScriptedStrategy
	items    []*beacon.Beacon
	pos      int

	once    sync.Once
	stopped chan struct{}
}

func (s *scriptedScan) Next(ctx context.Context) (*beacon.Beacon, error) {
	select {
	case <-s.stopped:
		return nil, io.EOF
	default:
	}

	if s.pos < len(s.items) {
		b := s.items[s.pos]
		s.pos++
		return b, nil
	}

	switch {
	case s.strategy.Err != nil:
		return nil, s.strategy.Err
	case s.strategy.Finite:
		return nil, io.EOF
	}

	select {
	case <-s.stopped:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedScan) Stop() error {
	s.strategy.stops.Add(1)
	s.once.Do(func() { close(s.stopped) })
	return nil
}
