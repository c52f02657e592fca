// Package testutils holds fakes, mocks and assertion helpers shared by tests.
package testutils

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/srg/beacons/beacon"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Hook   *logtest.Hook
}

// NewTestHelper creates a test helper whose logger records entries in Hook.
func NewTestHelper(t *testing.T) *TestHelper {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	return &TestHelper{
		T:      t,
		Logger: logger,
		Hook:   hook,
	}
}

// EntriesAt returns the recorded log entries at level
func (h *TestHelper) EntriesAt(level logrus.Level) []logrus.Entry {
	var out []logrus.Entry
	for _, e := range h.Hook.AllEntries() {
		if e.Level == level {
			out = append(out, *e)
		}
	}
	return out
}

// MustBeacon builds a beacon or fails the test
func MustBeacon(t testing.TB, address string, rssi int, opts ...beacon.Option) *beacon.Beacon {
	t.Helper()
	b, err := beacon.New(address, rssi, nil, opts...)
	if err != nil {
		t.Fatalf("failed to build beacon %s: %v", address, err)
	}
	return b
}

// SeenAt is a fixed timestamp for deterministic records
var SeenAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
